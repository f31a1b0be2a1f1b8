package valueobject

import (
	"fmt"
	"strings"
)

// DecisionOutcome is an immutable value object representing the outcome of
// scoring a claim.
type DecisionOutcome struct {
	value string
}

var (
	OutcomeApprove = DecisionOutcome{value: "APPROVE"}
	OutcomeReview  = DecisionOutcome{value: "REVIEW"}
	OutcomeReject  = DecisionOutcome{value: "REJECT"}
)

// DecisionOutcomeFromString reconstructs an outcome from its string representation.
func DecisionOutcomeFromString(s string) (DecisionOutcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROVE":
		return OutcomeApprove, nil
	case "REVIEW":
		return OutcomeReview, nil
	case "REJECT":
		return OutcomeReject, nil
	default:
		return DecisionOutcome{}, fmt.Errorf("invalid decision outcome: %s", s)
	}
}

// String returns the string representation.
func (d DecisionOutcome) String() string {
	return d.value
}

// Tier orders outcomes by severity: APPROVE=1, REVIEW=2, REJECT=3.
func (d DecisionOutcome) Tier() int {
	switch d.value {
	case "APPROVE":
		return 1
	case "REVIEW":
		return 2
	case "REJECT":
		return 3
	default:
		return 0
	}
}

// IsZero returns true if the outcome has not been set.
func (d DecisionOutcome) IsZero() bool {
	return d.value == ""
}

// Equal checks equality with another DecisionOutcome.
func (d DecisionOutcome) Equal(other DecisionOutcome) bool {
	return d.value == other.value
}

// IsApproved returns true if the outcome is APPROVE.
func (d DecisionOutcome) IsApproved() bool {
	return d.value == "APPROVE"
}

// IsReview returns true if the outcome is REVIEW.
func (d DecisionOutcome) IsReview() bool {
	return d.value == "REVIEW"
}

// IsRejected returns true if the outcome is REJECT.
func (d DecisionOutcome) IsRejected() bool {
	return d.value == "REJECT"
}

// MarshalText implements encoding.TextMarshaler.
func (d DecisionOutcome) MarshalText() ([]byte, error) {
	return []byte(d.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DecisionOutcome) UnmarshalText(text []byte) error {
	parsed, err := DecisionOutcomeFromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
