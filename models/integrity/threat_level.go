package integrity

import (
	"fmt"
	"strings"

	"github.com/APTrust/integrity-services/constants"
)

// ThreatLevel is the severity of a detected integrity violation.
// Levels are totally ordered, so the aggregate threat of a sweep
// is simply the maximum of its members.
type ThreatLevel int

const (
	ThreatNone ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

var threatNames = map[ThreatLevel]string{
	ThreatNone:     constants.ThreatNone,
	ThreatLow:      constants.ThreatLow,
	ThreatMedium:   constants.ThreatMedium,
	ThreatHigh:     constants.ThreatHigh,
	ThreatCritical: constants.ThreatCritical,
}

func (level ThreatLevel) String() string {
	if name, ok := threatNames[level]; ok {
		return name
	}
	return fmt.Sprintf("ThreatLevel(%d)", int(level))
}

// ParseThreatLevel converts a name like "high" or "CRITICAL" to a
// ThreatLevel.
func ParseThreatLevel(name string) (ThreatLevel, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for level, levelName := range threatNames {
		if levelName == name {
			return level, nil
		}
	}
	return ThreatNone, fmt.Errorf("Unknown threat level '%s'", name)
}

func (level ThreatLevel) MarshalText() ([]byte, error) {
	if _, ok := threatNames[level]; !ok {
		return nil, fmt.Errorf("Cannot marshal invalid threat level %d", int(level))
	}
	return []byte(level.String()), nil
}

func (level *ThreatLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseThreatLevel(string(text))
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

// MaxThreatLevel returns the most severe level in levels, or
// ThreatNone if levels is empty.
func MaxThreatLevel(levels ...ThreatLevel) ThreatLevel {
	max := ThreatNone
	for _, level := range levels {
		if level > max {
			max = level
		}
	}
	return max
}
