package valueobject

import "fmt"

// ScoringMode records which inputs a decision was derived from.
type ScoringMode struct {
	value string
}

var (
	// ModeFull combines the fraud probability with the alarm list.
	ModeFull = ScoringMode{value: "full"}
	// ModeProbabilityOnly is used when no alarm could be evaluated.
	ModeProbabilityOnly = ScoringMode{value: "probability_only"}
	// ModeAlarmsOnly is used when the caller explicitly accepted a decision
	// without a fraud probability.
	ModeAlarmsOnly = ScoringMode{value: "alarms_only"}
)

// ScoringModeFromString reconstructs a ScoringMode from its string representation.
func ScoringModeFromString(s string) (ScoringMode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "probability_only":
		return ModeProbabilityOnly, nil
	case "alarms_only":
		return ModeAlarmsOnly, nil
	default:
		return ScoringMode{}, fmt.Errorf("invalid scoring mode: %s", s)
	}
}

func (m ScoringMode) String() string           { return m.value }
func (m ScoringMode) IsZero() bool             { return m.value == "" }
func (m ScoringMode) Equal(o ScoringMode) bool { return m.value == o.value }

// MarshalText implements encoding.TextMarshaler.
func (m ScoringMode) MarshalText() ([]byte, error) {
	return []byte(m.value), nil
}
