// Package source provides read access to the content of monitored
// artifacts, wherever that content lives.
package source

import (
	"context"
	"errors"
	"io"
)

// ErrAbsent means the artifact has no content at its identifier.
// Absence is not tampering: the scanner skips absent artifacts.
var ErrAbsent = errors.New("artifact content is absent")

// Source opens artifact content by identifier. Any error other than
// ErrAbsent is treated as a transient read failure.
type Source interface {
	Open(ctx context.Context, identifier string) (io.ReadCloser, error)
	Name() string
}
