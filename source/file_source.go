package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FileSource reads artifacts from the local filesystem. Identifiers
// are slash-separated paths relative to Root, so "etc/passwd" under
// root "/" is /etc/passwd.
type FileSource struct {
	Root string
}

func NewFileSource(root string) *FileSource {
	return &FileSource{Root: root}
}

func (s *FileSource) Name() string {
	return fmt.Sprintf("file:%s", s.Root)
}

// Path returns the absolute path of identifier. Identifiers are
// cleaned as if rooted, so "../" cannot climb out of Root.
func (s *FileSource) Path(identifier string) (string, error) {
	clean := path.Clean("/" + identifier)
	if clean == "/" {
		return "", fmt.Errorf("Invalid artifact identifier '%s'", identifier)
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func (s *FileSource) Open(ctx context.Context, identifier string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.Path(identifier)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("Cannot open %s: %w", fullPath, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("Cannot stat %s: %w", fullPath, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", fullPath)
	}
	return file, nil
}
