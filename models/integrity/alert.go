package integrity

import (
	"encoding/json"
	"os"
	"time"
)

// Alert is the message published to the alert topic for each newly
// detected violation.
type Alert struct {
	Action    string      `json:"action"`
	Threat    ThreatLevel `json:"threat"`
	Host      string      `json:"host"`
	RaisedAt  time.Time   `json:"raised_at"`
	Violation *Violation  `json:"violation"`
}

// NewAlert returns an alert raised now on this host. Action names
// the response path, and threat is the sweep's aggregate threat,
// which may be higher than the violation's own severity.
func NewAlert(action string, threat ThreatLevel, violation *Violation) *Alert {
	hostname, _ := os.Hostname()
	return &Alert{
		Action:    action,
		Threat:    threat,
		Host:      hostname,
		RaisedAt:  time.Now().UTC(),
		Violation: violation,
	}
}

func (a *Alert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

func AlertFromJSON(data []byte) (*Alert, error) {
	alert := &Alert{}
	err := json.Unmarshal(data, alert)
	if err != nil {
		return nil, err
	}
	return alert, nil
}
