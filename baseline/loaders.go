package baseline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/APTrust/integrity-services/fixity"
	"github.com/APTrust/integrity-services/network"
	"github.com/op/go-logging"
)

const maxManifestSize = 4 * 1024 * 1024

// ManifestLoader reads a BagIt-style manifest: one
// "<digest>  <identifier>" per line. Blank lines and lines starting
// with # are ignored.
//
// If ExpectedSha256 is set, the manifest file itself must have that
// sha256 digest. This pin is what makes the baseline trustworthy:
// without it, anyone who can write the manifest can bless tampered
// files. Unpinned loads succeed but log a warning.
type ManifestLoader struct {
	Path           string
	ExpectedSha256 string
	Logger         *logging.Logger
}

func NewManifestLoader(pathToFile, expectedSha256 string, logger *logging.Logger) *ManifestLoader {
	return &ManifestLoader{
		Path:           pathToFile,
		ExpectedSha256: strings.ToLower(strings.TrimSpace(expectedSha256)),
		Logger:         logger,
	}
}

func (l *ManifestLoader) Describe() string {
	return fmt.Sprintf("manifest %s", l.Path)
}

func (l *ManifestLoader) Load(ctx context.Context) (map[string]string, error) {
	file, err := os.Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxManifestSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("Manifest exceeds %d bytes", maxManifestSize)
	}
	actual, err := fixity.NewSha256Engine().Digest(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if l.ExpectedSha256 == "" {
		if l.Logger != nil {
			l.Logger.Warningf("Baseline manifest %s is not pinned. Its sha256 is %s. "+
				"Set BASELINE_MANIFEST_SHA256 to verify it.", l.Path, actual)
		}
	} else if actual != l.ExpectedSha256 {
		return nil, fmt.Errorf("Manifest sha256 %s does not match pinned value %s",
			actual, l.ExpectedSha256)
	}
	return ParseManifest(bytes.NewReader(data))
}

// ParseManifest parses manifest lines. Digests are lower-cased.
// A '*' before the identifier, which sha256sum writes in binary
// mode, is dropped. Duplicate identifiers are an error, since we
// can't know which line to trust.
func ParseManifest(reader io.Reader) (map[string]string, error) {
	digests := make(map[string]string)
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		index := strings.IndexAny(line, " \t")
		if index < 0 {
			return nil, fmt.Errorf("Manifest line %d: expected '<digest> <identifier>'", lineNumber)
		}
		digest := strings.ToLower(line[:index])
		identifier := strings.TrimPrefix(strings.TrimSpace(line[index:]), "*")
		if identifier == "" {
			return nil, fmt.Errorf("Manifest line %d: missing identifier", lineNumber)
		}
		if _, exists := digests[identifier]; exists {
			return nil, fmt.Errorf("Manifest line %d: duplicate identifier '%s'", lineNumber, identifier)
		}
		digests[identifier] = digest
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return digests, nil
}

// WriteManifest writes digests as a manifest, sorted by identifier,
// in the same format ParseManifest reads.
func WriteManifest(writer io.Writer, digests map[string]string) error {
	identifiers := make([]string, 0, len(digests))
	for identifier := range digests {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	for _, identifier := range identifiers {
		_, err := fmt.Fprintf(writer, "%s  %s\n", digests[identifier], identifier)
		if err != nil {
			return err
		}
	}
	return nil
}

// RedisLoader reads the baseline from a Redis hash of identifier ->
// digest. Whoever can write that key controls the baseline, so
// protect it with Redis ACLs.
type RedisLoader struct {
	Client *network.RedisClient
	Key    string
}

func NewRedisLoader(client *network.RedisClient, key string) *RedisLoader {
	return &RedisLoader{
		Client: client,
		Key:    key,
	}
}

func (l *RedisLoader) Describe() string {
	return fmt.Sprintf("redis hash %s", l.Key)
}

func (l *RedisLoader) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Client.BaselineGet(l.Key)
}

// Save replaces the Redis baseline with digests.
func (l *RedisLoader) Save(digests map[string]string) error {
	return l.Client.BaselineSave(l.Key, digests)
}

// StaticLoader returns a fixed baseline.
type StaticLoader map[string]string

func (l StaticLoader) Describe() string {
	return "static baseline"
}

func (l StaticLoader) Load(ctx context.Context) (map[string]string, error) {
	digests := make(map[string]string, len(l))
	for identifier, digest := range l {
		digests[identifier] = digest
	}
	return digests, nil
}
