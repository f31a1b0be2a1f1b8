package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/service"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubCheck struct {
	evaluate  func(ctx context.Context) service.CheckResult
	alarmType valueobject.AlarmType
}

func (s *stubCheck) Type() valueobject.AlarmType { return s.alarmType }

func (s *stubCheck) Evaluate(ctx context.Context, _ *model.Claim) service.CheckResult {
	return s.evaluate(ctx)
}

func alarmingCheck(t valueobject.AlarmType, delay time.Duration) *stubCheck {
	return &stubCheck{alarmType: t, evaluate: func(context.Context) service.CheckResult {
		time.Sleep(delay)
		a := model.NewAlarm(t, valueobject.SeverityLow, t.String(), nil)
		return service.CheckResult{Alarm: &a}
	}}
}

func TestOrchestrator_PreservesRegistrationOrder(t *testing.T) {
	types := valueobject.AllAlarmTypes()
	checks := make([]service.Check, 0, len(types))
	for i, at := range types {
		// Earlier checks finish last.
		checks = append(checks, alarmingCheck(at, time.Duration(len(types)-i)*time.Millisecond))
	}

	report := service.NewOrchestrator(checks, discardLogger).Evaluate(context.Background(), newClaim())

	require.Len(t, report.Alarms, len(types))
	for i, a := range report.Alarms {
		assert.True(t, types[i].Equal(a.Type))
	}
	assert.False(t, report.Degraded())
}

func TestOrchestrator_PartialResultsOnOneFailure(t *testing.T) {
	types := valueobject.AllAlarmTypes()
	checks := make([]service.Check, 0, len(types))
	for _, at := range types {
		checks = append(checks, alarmingCheck(at, 0))
	}
	checks[4] = &stubCheck{alarmType: types[4], evaluate: func(context.Context) service.CheckResult {
		return service.CheckResult{Err: model.ErrCheckUnavailable}
	}}

	report := service.NewOrchestrator(checks, discardLogger).Evaluate(context.Background(), newClaim())

	assert.Len(t, report.Alarms, 12)
	require.Len(t, report.Failures, 1)
	assert.True(t, types[4].Equal(report.Failures[0].Type))
	assert.True(t, report.Degraded())
	assert.False(t, report.AllFailed())
}

func TestOrchestrator_PanicIsContained(t *testing.T) {
	checks := []service.Check{
		&stubCheck{alarmType: valueobject.AlarmNewBank, evaluate: func(context.Context) service.CheckResult {
			panic("boom")
		}},
		alarmingCheck(valueobject.AlarmLateReporting, 0),
	}

	report := service.NewOrchestrator(checks, discardLogger).Evaluate(context.Background(), newClaim())

	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, model.ErrCheckUnavailable)
	assert.Contains(t, report.Failures[0].Reason, "boom")
	assert.Len(t, report.Alarms, 1)
}

func TestOrchestrator_TimeoutAbandonsSlowCheck(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	checks := []service.Check{
		&stubCheck{alarmType: valueobject.AlarmVendorFraud, evaluate: func(context.Context) service.CheckResult {
			<-release // ignores its context
			return service.CheckResult{}
		}},
		alarmingCheck(valueobject.AlarmNewBank, 0),
	}

	o := service.NewOrchestrator(checks, discardLogger, service.WithCheckTimeout(20*time.Millisecond))

	start := time.Now()
	report := o.Evaluate(context.Background(), newClaim())

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, context.DeadlineExceeded)
	assert.Len(t, report.Alarms, 1)
}

func TestOrchestrator_AllFailed(t *testing.T) {
	fail := func(at valueobject.AlarmType) service.Check {
		return &stubCheck{alarmType: at, evaluate: func(context.Context) service.CheckResult {
			return service.CheckResult{Err: model.ErrReferenceDataUnavailable}
		}}
	}
	checks := []service.Check{fail(valueobject.AlarmBlacklistHit), fail(valueobject.AlarmRepeatClaimant)}

	report := service.NewOrchestrator(checks, discardLogger, service.WithConcurrency(1)).
		Evaluate(context.Background(), newClaim())

	assert.True(t, report.AllFailed())
	assert.Empty(t, report.Alarms)
}

func TestOrchestrator_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checks := []service.Check{
		&stubCheck{alarmType: valueobject.AlarmHighAmount, evaluate: func(ctx context.Context) service.CheckResult {
			<-ctx.Done()
			return service.CheckResult{Err: ctx.Err()}
		}},
	}

	report := service.NewOrchestrator(checks, discardLogger).Evaluate(ctx, newClaim())
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, context.Canceled)
}
