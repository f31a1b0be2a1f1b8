package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the scoring pipeline. Match with errors.Is.
var (
	ErrInvalidClaim             = errors.New("invalid claim")
	ErrCheckUnavailable         = errors.New("check unavailable")
	ErrReferenceDataUnavailable = errors.New("reference data unavailable")
	ErrProbabilitySource        = errors.New("probability source failure")
	ErrAssessmentNotFound       = errors.New("assessment not found")
)

// FieldError describes one violated constraint on a claim field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// InvalidClaimError lists every field-level violation found while building a
// Claim. It matches ErrInvalidClaim.
type InvalidClaimError struct {
	Fields []FieldError
}

func (e *InvalidClaimError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("invalid claim: %s", strings.Join(parts, "; "))
}

// Is reports whether target is ErrInvalidClaim.
func (e *InvalidClaimError) Is(target error) bool {
	return target == ErrInvalidClaim
}

// ProbabilitySourceError wraps a failed or timed-out classifier call. It
// matches ErrProbabilitySource.
type ProbabilitySourceError struct {
	Err error
}

func (e *ProbabilitySourceError) Error() string {
	return fmt.Sprintf("probability source failure: %v", e.Err)
}

func (e *ProbabilitySourceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProbabilitySource.
func (e *ProbabilitySourceError) Is(target error) bool {
	return target == ErrProbabilitySource
}
