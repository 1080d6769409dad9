package testutil

import (
	"github.com/APTrust/integrity-services/network"
	"github.com/alicebob/miniredis/v2"
)

// RedisServer is an in-memory Redis for unit tests.
type RedisServer struct {
	server *miniredis.Miniredis
}

func NewRedisServer() *RedisServer {
	server, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	return &RedisServer{
		server: server,
	}
}

func (s *RedisServer) Addr() string {
	return s.server.Addr()
}

// Client returns a RedisClient connected to this server.
func (s *RedisServer) Client() *network.RedisClient {
	return network.NewRedisClient(s.server.Addr(), "", 0)
}

// Miniredis exposes the underlying server so tests can inspect
// keys directly or simulate failures.
func (s *RedisServer) Miniredis() *miniredis.Miniredis {
	return s.server
}

func (s *RedisServer) Close() {
	s.server.Close()
}
