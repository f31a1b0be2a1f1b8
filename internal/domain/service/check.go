package service

import (
	"context"
	"fmt"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// Check is a single fraud rule. Evaluate returns at most one alarm and never
// panics on collaborator failures; those are reported in CheckResult.Err.
type Check interface {
	Type() valueobject.AlarmType
	Evaluate(ctx context.Context, claim *model.Claim) CheckResult
}

// CheckResult is the outcome of one check. A non-nil Err with a nil Alarm
// means the check defaulted to "not triggered"; a non-nil Err with an Alarm
// means the alarm was raised from partial data.
type CheckResult struct {
	Err   error
	Alarm *model.Alarm
}

// Degraded reports whether the check could not consult all of its inputs.
func (r CheckResult) Degraded() bool {
	return r.Err != nil
}

func raised(a model.Alarm) CheckResult {
	return CheckResult{Alarm: &a}
}

func quiet() CheckResult {
	return CheckResult{}
}

func checkUnavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrCheckUnavailable, what, err)
}

func referenceUnavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrReferenceDataUnavailable, what, err)
}

// markDegraded stamps the evidence of a partially computed alarm.
func markDegraded(r CheckResult, err error) CheckResult {
	r.Err = err
	if r.Alarm != nil {
		r.Alarm.Evidence[model.EvidenceDegraded] = true
	}
	return r
}
