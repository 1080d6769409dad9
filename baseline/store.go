// Package baseline holds the trusted digests that sweeps compare
// against, and the loaders that bring them in across the trust
// boundary.
package baseline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/APTrust/integrity-services/models/integrity"
)

// ErrUnknownArtifact is returned when a baseline names an identifier
// that is not in the monitored artifact set.
var ErrUnknownArtifact = errors.New("Identifier is not a monitored artifact")

// Loader reads a trusted identifier -> digest map.
type Loader interface {
	Load(ctx context.Context) (map[string]string, error)
	Describe() string
}

// Store is the in-memory baseline. It is filled once by Load and is
// changed afterward only by Accept.
type Store struct {
	loader    Loader
	artifacts map[string]bool
	digests   map[string]string
	mutex     sync.RWMutex
}

func NewStore(loader Loader, artifacts []integrity.Artifact) *Store {
	known := make(map[string]bool, len(artifacts))
	for _, artifact := range artifacts {
		known[artifact.Identifier] = true
	}
	return &Store{
		loader:    loader,
		artifacts: known,
		digests:   make(map[string]string),
	}
}

// Load replaces the store's contents with what the loader returns.
// The whole load fails if any entry names an unknown artifact or
// carries a malformed digest. A failed load leaves the store as it
// was.
func (s *Store) Load(ctx context.Context) error {
	if s.loader == nil {
		return fmt.Errorf("Baseline store has no loader")
	}
	loaded, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("Cannot load baseline from %s: %w", s.loader.Describe(), err)
	}
	digests := make(map[string]string, len(loaded))
	for identifier, digest := range loaded {
		normalized, err := s.check(identifier, digest)
		if err != nil {
			return fmt.Errorf("Baseline from %s: %w", s.loader.Describe(), err)
		}
		digests[identifier] = normalized
	}
	s.mutex.Lock()
	s.digests = digests
	s.mutex.Unlock()
	return nil
}

// Get returns the trusted digest for identifier.
func (s *Store) Get(identifier string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	digest, ok := s.digests[identifier]
	return digest, ok
}

// Snapshot returns a copy of the baseline.
func (s *Store) Snapshot() map[string]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snapshot := make(map[string]string, len(s.digests))
	for identifier, digest := range s.digests {
		snapshot[identifier] = digest
	}
	return snapshot
}

// Accept records digest as the trusted value for identifier. This is
// the only way the baseline changes after Load.
func (s *Store) Accept(identifier, digest string) error {
	normalized, err := s.check(identifier, digest)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.digests[identifier] = normalized
	s.mutex.Unlock()
	return nil
}

func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.digests)
}

// Identifiers returns the baselined identifiers in sorted order.
func (s *Store) Identifiers() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	identifiers := make([]string, 0, len(s.digests))
	for identifier := range s.digests {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}

func (s *Store) check(identifier, digest string) (string, error) {
	if !s.artifacts[identifier] {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownArtifact, identifier)
	}
	normalized := strings.ToLower(strings.TrimSpace(digest))
	if !IsValidDigest(normalized) {
		return "", fmt.Errorf("Invalid sha256 digest for '%s': '%s'", identifier, digest)
	}
	return normalized, nil
}

// IsValidDigest returns true if digest is 64 lower-case hex chars.
func IsValidDigest(digest string) bool {
	if len(digest) != 64 || strings.ToLower(digest) != digest {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
