package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Sha256 returns the lower-case hex sha256 of content.
func Sha256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// WriteArtifact writes content to identifier under root, creating
// parent directories as needed, and returns the full path.
func WriteArtifact(t *testing.T, root, identifier, content string) string {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(identifier))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
	return fullPath
}

// RemoveArtifact deletes identifier under root.
func RemoveArtifact(t *testing.T, root, identifier string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(root, filepath.FromSlash(identifier))))
}
