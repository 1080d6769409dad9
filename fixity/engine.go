package fixity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/APTrust/integrity-services/constants"
)

// Engine computes sha256 content digests, the only algorithm
// baselines use. It reads its input in fixed-size chunks, so memory
// use does not grow with file size. An Engine has no mutable state
// and is safe to share across goroutines.
type Engine struct {
	Algorithm string
	ChunkSize int
}

func NewSha256Engine() *Engine {
	return &Engine{
		Algorithm: constants.AlgSha256,
		ChunkSize: constants.DigestChunkSize,
	}
}

// Digest returns the hex-encoded digest of everything in reader.
// If reader fails before EOF, this returns a ReadError and no digest.
// It also stops with ctx.Err() if ctx is cancelled between chunks.
func (e *Engine) Digest(ctx context.Context, reader io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, e.ChunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := reader.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ReadError{BytesRead: total, Err: err}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile returns the digest of the file at pathToFile.
func (e *Engine) DigestFile(ctx context.Context, pathToFile string) (string, error) {
	file, err := os.Open(pathToFile)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return e.Digest(ctx, file)
}

// ReadError means the source could not be read in full. A digest
// of partial content is never returned.
type ReadError struct {
	BytesRead int64
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read failed after %d bytes: %v", e.BytesRead, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
