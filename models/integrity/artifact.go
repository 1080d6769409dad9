package integrity

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxRegistrySize caps the size of an artifact registry file. A
// registry with a few thousand artifacts is well under this.
const maxRegistrySize = 1 << 20

// Artifact is a monitored unit of content. Identifier is a stable
// path or key that the content source knows how to resolve.
type Artifact struct {
	Identifier string
	Severity   ThreatLevel
}

// DefaultArtifacts is the registry used when no ARTIFACTS_FILE is
// configured. Credential and privilege files are critical-path,
// the SSH daemon config and loader config can let an attacker in,
// and the hosts file is the named secondary artifact.
var DefaultArtifacts = []Artifact{
	{Identifier: "etc/passwd", Severity: ThreatCritical},
	{Identifier: "etc/shadow", Severity: ThreatCritical},
	{Identifier: "etc/sudoers", Severity: ThreatCritical},
	{Identifier: "etc/ssh/sshd_config", Severity: ThreatHigh},
	{Identifier: "etc/ld.so.preload", Severity: ThreatHigh},
	{Identifier: "etc/hosts", Severity: ThreatMedium},
}

type registryEntry struct {
	Identifier string `yaml:"identifier"`
	Severity   string `yaml:"severity"`
}

type registryFile struct {
	Artifacts []registryEntry `yaml:"artifacts"`
}

// LoadRegistry reads an artifact registry from a YAML file like this:
//
//	artifacts:
//	  - identifier: etc/passwd
//	    severity: critical
//	  - identifier: opt/app/plugin.so
//
// Entries without a severity are tracked at LOW.
func LoadRegistry(pathToFile string) ([]Artifact, error) {
	info, err := os.Stat(pathToFile)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxRegistrySize {
		return nil, fmt.Errorf("Artifact registry %s is too large (%d bytes)", pathToFile, info.Size())
	}
	data, err := os.ReadFile(pathToFile)
	if err != nil {
		return nil, err
	}
	artifacts, err := ParseRegistry(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Artifact registry %s: %w", pathToFile, err)
	}
	return artifacts, nil
}

// ParseRegistry parses registry YAML from reader.
func ParseRegistry(reader io.Reader) ([]Artifact, error) {
	registry := registryFile{}
	if err := yaml.NewDecoder(reader).Decode(&registry); err != nil && err != io.EOF {
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(registry.Artifacts))
	for i, entry := range registry.Artifacts {
		severity := ThreatLow
		if strings.TrimSpace(entry.Severity) != "" {
			level, err := ParseThreatLevel(entry.Severity)
			if err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, entry.Identifier, err)
			}
			severity = level
		}
		artifacts = append(artifacts, Artifact{
			Identifier: strings.TrimSpace(entry.Identifier),
			Severity:   severity,
		})
	}
	if err := ValidateArtifacts(artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// ValidateArtifacts checks that every artifact has an identifier
// and that no identifier appears twice.
func ValidateArtifacts(artifacts []Artifact) error {
	seen := make(map[string]bool, len(artifacts))
	for i, artifact := range artifacts {
		if artifact.Identifier == "" {
			return fmt.Errorf("Artifact %d has no identifier", i)
		}
		if seen[artifact.Identifier] {
			return fmt.Errorf("Artifact %s is listed more than once", artifact.Identifier)
		}
		seen[artifact.Identifier] = true
	}
	return nil
}

// Identifiers returns the identifiers of artifacts, in order.
func Identifiers(artifacts []Artifact) []string {
	ids := make([]string, len(artifacts))
	for i, artifact := range artifacts {
		ids[i] = artifact.Identifier
	}
	return ids
}
