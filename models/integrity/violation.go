package integrity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Violation records one artifact whose observed digest did not
// match its baseline. Violations are created by the scanner and
// never modified afterward.
type Violation struct {
	ID         string      `json:"id"`
	Identifier string      `json:"identifier"`
	Expected   string      `json:"expected"`
	Actual     string      `json:"actual"`
	DetectedAt time.Time   `json:"detected_at"`
	Severity   ThreatLevel `json:"severity"`
}

// NewViolation returns a Violation with a new random ID, detected now.
func NewViolation(identifier, expected, actual string, severity ThreatLevel) *Violation {
	return &Violation{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Expected:   expected,
		Actual:     actual,
		DetectedAt: time.Now().UTC(),
		Severity:   severity,
	}
}

// IsUnbaselined returns true if this violation was raised in strict
// mode for an artifact that has no baseline entry.
func (v *Violation) IsUnbaselined() bool {
	return v.Expected == ""
}

// Key identifies the tampering itself rather than the detection,
// so the same modified content seen on two sweeps has the same key.
func (v *Violation) Key() string {
	return fmt.Sprintf("%s:%s", v.Identifier, v.Actual)
}

func (v *Violation) String() string {
	if v.IsUnbaselined() {
		return fmt.Sprintf("%s [%s]: no baseline, got %s", v.Identifier, v.Severity, v.Actual)
	}
	return fmt.Sprintf("%s [%s]: expected %s, got %s", v.Identifier, v.Severity, v.Expected, v.Actual)
}

func (v *Violation) ToJSON() (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ViolationFromJSON(jsonData string) (*Violation, error) {
	v := &Violation{}
	err := json.Unmarshal([]byte(jsonData), v)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Severities returns the severities of violations, in order.
func Severities(violations []*Violation) []ThreatLevel {
	levels := make([]ThreatLevel, len(violations))
	for i, v := range violations {
		levels[i] = v.Severity
	}
	return levels
}
