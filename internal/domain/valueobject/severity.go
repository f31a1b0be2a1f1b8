package valueobject

import (
	"fmt"
	"strings"
)

// Severity is an immutable value object representing how strongly an alarm
// indicates fraud.
type Severity struct {
	value string
}

var (
	SeverityLow    = Severity{value: "low"}
	SeverityMedium = Severity{value: "medium"}
	SeverityHigh   = Severity{value: "high"}
)

// SeverityFromString reconstructs a Severity from its string representation.
func SeverityFromString(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return Severity{}, fmt.Errorf("invalid severity: %s", s)
	}
}

// String returns the string representation.
func (s Severity) String() string {
	return s.value
}

// Rank orders severities: low=1, medium=2, high=3. The zero value ranks 0.
func (s Severity) Rank() int {
	switch s.value {
	case "low":
		return 1
	case "medium":
		return 2
	case "high":
		return 3
	default:
		return 0
	}
}

// IsZero returns true if the Severity has not been set.
func (s Severity) IsZero() bool {
	return s.value == ""
}

// Equal checks equality with another Severity.
func (s Severity) Equal(other Severity) bool {
	return s.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := SeverityFromString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
