package source_test

import (
	"context"
	"io"
	"testing"

	"github.com/APTrust/integrity-services/source"
	"github.com/APTrust/integrity-services/util/testutil"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getS3Source(t *testing.T, server *testutil.S3Server) *source.S3Source {
	client, err := minio.New(server.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("test-key", "test-secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	require.Nil(t, err)
	return source.NewS3Source(client, testutil.ArtifactBucket, "host-01")
}

func TestS3SourceOpen(t *testing.T) {
	server := testutil.NewS3Server()
	defer server.Close()
	require.Nil(t, server.Put("host-01/etc/hosts", "127.0.0.1 localhost\n"))

	s3Source := getS3Source(t, server)
	assert.Equal(t, "s3:artifacts/host-01", s3Source.Name())
	assert.Equal(t, "host-01/etc/hosts", s3Source.Key("etc/hosts"))

	reader, err := s3Source.Open(context.Background(), "etc/hosts")
	require.Nil(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.Nil(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))
}

func TestS3SourceAbsent(t *testing.T) {
	server := testutil.NewS3Server()
	defer server.Close()

	_, err := getS3Source(t, server).Open(context.Background(), "etc/shadow")
	assert.ErrorIs(t, err, source.ErrAbsent)

	require.Nil(t, server.Put("host-01/etc/shadow", "root:*:19000::::::\n"))
	require.Nil(t, server.Delete("host-01/etc/shadow"))
	_, err = getS3Source(t, server).Open(context.Background(), "etc/shadow")
	assert.ErrorIs(t, err, source.ErrAbsent)
}

func TestS3SourceDenied(t *testing.T) {
	server := testutil.NewS3Server()
	defer server.Close()
	require.Nil(t, server.Put("host-01/etc/shadow", "root:*:19000::::::\n"))
	server.Deny("host-01/etc/shadow")

	_, err := getS3Source(t, server).Open(context.Background(), "etc/shadow")
	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrAbsent)
	assert.Contains(t, err.Error(), "s3://artifacts/host-01/etc/shadow")
}
