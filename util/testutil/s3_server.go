package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

const ArtifactBucket = "artifacts"

// S3Server is an in-memory S3 service holding ArtifactBucket.
type S3Server struct {
	URL     string
	Host    string
	server  *httptest.Server
	backend *s3mem.Backend
	denied  map[string]bool
	mutex   sync.Mutex
}

func NewS3Server() *S3Server {
	backend := s3mem.New()
	backend.CreateBucket(ArtifactBucket)
	faker := gofakes3.New(backend)
	s3 := &S3Server{
		backend: backend,
		denied:  make(map[string]bool),
	}
	s3.server = httptest.NewServer(s3.denyHandler(faker.Server()))
	s3.URL = s3.server.URL
	s3.Host = strings.TrimPrefix(s3.server.URL, "http://")
	return s3
}

// Put stores content at key in ArtifactBucket.
func (s3 *S3Server) Put(key, content string) error {
	_, err := s3.backend.PutObject(ArtifactBucket, key, map[string]string{},
		strings.NewReader(content), int64(len(content)))
	return err
}

func (s3 *S3Server) Delete(key string) error {
	_, err := s3.backend.DeleteObject(ArtifactBucket, key)
	return err
}

// Deny makes requests for key fail with AccessDenied. Access errors
// are not retried by minio-go, so tests don't wait on backoff.
func (s3 *S3Server) Deny(key string) {
	s3.mutex.Lock()
	s3.denied[key] = true
	s3.mutex.Unlock()
}

func (s3 *S3Server) Close() {
	s3.server.Close()
}

func (s3 *S3Server) denyHandler(next http.Handler) http.Handler {
	prefix := "/" + ArtifactBucket + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix)
		s3.mutex.Lock()
		denied := strings.HasPrefix(r.URL.Path, prefix) && s3.denied[key]
		s3.mutex.Unlock()
		if !denied {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		if r.Method != http.MethodHead {
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>AccessDenied</Code><Message>Access Denied</Message>`+
				`<Resource>%s</Resource></Error>`, r.URL.Path)
		}
	})
}
