package integrity

import (
	"fmt"

	"github.com/APTrust/integrity-services/constants"
)

// IntegrityStatus is the externally observable posture of the
// monitored system.
type IntegrityStatus int

const (
	// StatusOffline is the zero value: a supervisor that has not been
	// initialized, has shut down, or is backing off after a failed
	// sweep.
	StatusOffline IntegrityStatus = iota
	StatusMonitoring
	StatusSecure
	StatusCompromised
)

var statusNames = map[IntegrityStatus]string{
	StatusOffline:     constants.StatusOffline,
	StatusMonitoring:  constants.StatusMonitoring,
	StatusSecure:      constants.StatusSecure,
	StatusCompromised: constants.StatusCompromised,
}

func (status IntegrityStatus) String() string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("IntegrityStatus(%d)", int(status))
}

// IsActive returns true for the two states reached after a
// completed sweep.
func (status IntegrityStatus) IsActive() bool {
	return status == StatusSecure || status == StatusCompromised
}

func (status IntegrityStatus) MarshalText() ([]byte, error) {
	if _, ok := statusNames[status]; !ok {
		return nil, fmt.Errorf("Cannot marshal invalid status %d", int(status))
	}
	return []byte(status.String()), nil
}

func (status *IntegrityStatus) UnmarshalText(text []byte) error {
	for s, name := range statusNames {
		if name == string(text) {
			*status = s
			return nil
		}
	}
	return fmt.Errorf("Unknown integrity status '%s'", string(text))
}
