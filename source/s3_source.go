package source

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// S3Source reads artifacts from an S3-compatible bucket. The object
// key is Prefix joined with the identifier.
type S3Source struct {
	Bucket string
	Prefix string
	client *minio.Client
}

func NewS3Source(client *minio.Client, bucket, prefix string) *S3Source {
	return &S3Source{
		Bucket: bucket,
		Prefix: prefix,
		client: client,
	}
}

func (s *S3Source) Name() string {
	return fmt.Sprintf("s3:%s/%s", s.Bucket, s.Prefix)
}

func (s *S3Source) Key(identifier string) string {
	return path.Join(s.Prefix, identifier)
}

// Open returns the object's content. GetObject is lazy, so we stat
// the object first to learn whether it exists before anyone reads.
func (s *S3Source) Open(ctx context.Context, identifier string) (io.ReadCloser, error) {
	key := s.Key(identifier)
	obj, err := s.client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}
	if _, err = obj.Stat(); err != nil {
		obj.Close()
		return nil, s.translate(key, err)
	}
	return obj, nil
}

func (s *S3Source) translate(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrAbsent
	}
	return fmt.Errorf("Cannot get s3://%s/%s: %w", s.Bucket, key, err)
}
