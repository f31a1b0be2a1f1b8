package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibbank/claimrisk/internal/domain/model"
)

const (
	// DefaultCheckTimeout bounds a single check.
	DefaultCheckTimeout = 3 * time.Second
	// DefaultCheckConcurrency bounds the checks running at once per claim.
	DefaultCheckConcurrency = 8
)

// AlarmReport is the joined result of running every check on one claim.
type AlarmReport struct {
	// Alarms are in check registration order.
	Alarms []model.Alarm
	// Failures lists every check that could not consult all of its inputs,
	// in registration order.
	Failures  []model.CheckFailure
	Evaluated int
}

// Degraded reports whether at least one check failed.
func (r AlarmReport) Degraded() bool {
	return len(r.Failures) > 0
}

// AllFailed reports whether no alarm information could be obtained at all:
// every check failed and none raised an alarm from partial data.
func (r AlarmReport) AllFailed() bool {
	return r.Evaluated > 0 && len(r.Failures) == r.Evaluated && len(r.Alarms) == 0
}

// Orchestrator runs the registered checks concurrently against a claim.
type Orchestrator struct {
	logger      *slog.Logger
	checks      []Check
	timeout     time.Duration
	concurrency int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithConcurrency overrides DefaultCheckConcurrency.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewOrchestrator creates an Orchestrator over checks, which are evaluated
// and reported in the given order.
func NewOrchestrator(checks []Check, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		checks:      checks,
		logger:      logger,
		timeout:     DefaultCheckTimeout,
		concurrency: DefaultCheckConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Checks returns the registered checks in order.
func (o *Orchestrator) Checks() []Check {
	return o.checks
}

// Evaluate runs every check and joins the results. It never fails: checks
// that error, panic or exceed their timeout are listed in Failures and the
// remaining results are returned.
func (o *Orchestrator) Evaluate(ctx context.Context, claim *model.Claim) AlarmReport {
	results := make([]CheckResult, len(o.checks))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, check := range o.checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = o.run(ctx, check, claim)
			return nil
		})
	}
	_ = g.Wait()

	report := AlarmReport{Evaluated: len(o.checks)}
	for i, res := range results {
		if res.Alarm != nil {
			report.Alarms = append(report.Alarms, *res.Alarm)
		}
		if res.Err != nil {
			check := o.checks[i]
			o.logger.Warn("alarm check degraded",
				"alarm_type", check.Type().String(),
				"claimant_id", claim.ClaimantID(),
				"error", res.Err,
			)
			report.Failures = append(report.Failures, model.CheckFailure{
				Type:   check.Type(),
				Reason: res.Err.Error(),
				Err:    res.Err,
			})
		}
	}

	return report
}

// run evaluates one check under its own deadline. A check that ignores its
// context is abandoned when the deadline passes; its goroutine finishes on
// its own and its result is discarded.
func (o *Orchestrator) run(ctx context.Context, check Check, claim *model.Claim) CheckResult {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan CheckResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- CheckResult{Err: fmt.Errorf("%w: check panicked: %v", model.ErrCheckUnavailable, r)}
			}
		}()
		done <- check.Evaluate(cctx, claim)
	}()

	select {
	case res := <-done:
		return res
	case <-cctx.Done():
		return CheckResult{Err: fmt.Errorf("%w: %s: %w", model.ErrCheckUnavailable, check.Type(), cctx.Err())}
	}
}
