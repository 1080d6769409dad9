package monitor

import (
	"github.com/APTrust/integrity-services/models/integrity"
)

// Classifier maps artifact identifiers to the severity of their
// tampering. It never fails: identifiers it doesn't know are LOW.
type Classifier struct {
	severities map[string]integrity.ThreatLevel
}

func NewClassifier(artifacts []integrity.Artifact) *Classifier {
	severities := make(map[string]integrity.ThreatLevel, len(artifacts))
	for _, artifact := range artifacts {
		severities[artifact.Identifier] = artifact.Severity
	}
	return &Classifier{severities: severities}
}

// Classify returns the severity of a violation on identifier. The
// result is always at least LOW, since a violation with no threat
// would never reach a response path.
func (c *Classifier) Classify(identifier string) integrity.ThreatLevel {
	severity, ok := c.severities[identifier]
	if !ok || severity < integrity.ThreatLow {
		return integrity.ThreatLow
	}
	return severity
}
