package common

import (
	"fmt"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/network"
	"github.com/APTrust/integrity-services/util/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
)

// Context bundles the config settings, logger and service clients
// that integrity services need. Clients for services that are not
// configured are nil: NSQClient when NSQ_URL is empty, RedisClient
// when REDIS_URL is empty, and S3Client unless ARTIFACT_SOURCE is s3.
type Context struct {
	Config      *Config
	Logger      *logging.Logger
	NSQClient   *network.NSQClient
	RedisClient *network.RedisClient
	S3Client    *minio.Client
}

// NewContext loads the config from the environment and returns a
// Context. It panics on any error.
func NewContext() *Context {
	context, err := NewContextFromConfig(NewConfig())
	if err != nil {
		panic(err)
	}
	return context
}

// NewContextFromConfig returns a Context built from config.
func NewContextFromConfig(config *Config) (*Context, error) {
	_logger, _, err := logger.InitLogger(config.LogDir, config.LogLevel)
	if err != nil {
		return nil, err
	}
	s3Client, err := getS3Client(config, _logger)
	if err != nil {
		return nil, err
	}
	return &Context{
		Config:      config,
		Logger:      _logger,
		NSQClient:   getNsqClient(config),
		RedisClient: getRedisClient(config),
		S3Client:    s3Client,
	}, nil
}

func getNsqClient(config *Config) *network.NSQClient {
	if config.NsqURL == "" {
		return nil
	}
	return network.NewNSQClient(config.NsqURL)
}

func getRedisClient(config *Config) *network.RedisClient {
	if config.RedisURL == "" {
		return nil
	}
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getS3Client(config *Config, logger *logging.Logger) (*minio.Client, error) {
	if config.ArtifactSource != constants.ArtifactSourceS3 {
		return nil, nil
	}
	client, err := minio.New(
		config.S3Host,
		&minio.Options{
			Creds:  credentials.NewStaticV4(config.S3KeyID, config.S3SecretKey, ""),
			Secure: config.S3UseSSL,
		})
	if err != nil {
		return nil, fmt.Errorf("Could not initialize S3 client for %s: %v", config.S3Host, err)
	}
	if config.LogLevel == logging.DEBUG {
		client.TraceOn(NewTracer(logger))
	}
	return client, nil
}
