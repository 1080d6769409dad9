package integrity

import (
	"encoding/json"
	"time"
)

// Posture is the snapshot a supervisor publishes after each state
// change. Status and Threat travel together so that no observer
// ever sees one updated without the other.
type Posture struct {
	Status     IntegrityStatus `json:"status"`
	Threat     ThreatLevel     `json:"threat"`
	SweepID    string          `json:"sweep_id,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Violations []*Violation    `json:"violations"`
}

// OfflinePosture is the posture of a supervisor that is not running.
func OfflinePosture() Posture {
	return Posture{
		Status:     StatusOffline,
		Threat:     ThreatNone,
		UpdatedAt:  time.Now().UTC(),
		Violations: make([]*Violation, 0),
	}
}

func (p Posture) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
