package integrity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SweepResult describes one full pass over the monitored artifacts.
type SweepResult struct {
	// SweepID uniquely identifies this sweep in logs, alerts and
	// history.
	SweepID string `json:"sweep_id"`

	// StartedAt describes when the sweep began reading artifacts.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt describes when the sweep completed. If
	// FinishedAt.IsZero(), the sweep did not complete.
	FinishedAt time.Time `json:"finished_at"`

	// Checked is the number of artifacts whose content was read
	// and digested.
	Checked int `json:"checked"`

	// Absent is the number of artifacts skipped because their
	// content does not exist.
	Absent int `json:"absent"`

	// Unbaselined is the number of artifacts that were digested
	// but had no baseline to compare against.
	Unbaselined int `json:"unbaselined"`

	// Violations lists mismatches in artifact order.
	Violations []*Violation `json:"violations"`
}

func NewSweepResult() *SweepResult {
	return &SweepResult{
		SweepID:    uuid.NewString(),
		Violations: make([]*Violation, 0),
	}
}

func (result *SweepResult) Start() {
	result.StartedAt = time.Now().UTC()
}

func (result *SweepResult) Finish() {
	result.FinishedAt = time.Now().UTC()
}

func (result *SweepResult) Finished() bool {
	return !result.FinishedAt.IsZero()
}

func (result *SweepResult) RunTime() time.Duration {
	if result.StartedAt.IsZero() {
		return time.Duration(0)
	}
	endTime := result.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(result.StartedAt)
}

func (result *SweepResult) AddViolation(v *Violation) {
	result.Violations = append(result.Violations, v)
}

func (result *SweepResult) HasViolations() bool {
	return len(result.Violations) > 0
}

func (result *SweepResult) ToJSON() (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
