package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/service"
)

// Metrics holds the scoring instruments.
type Metrics struct {
	claimsScored         metric.Int64Counter
	alarmsRaised         metric.Int64Counter
	checksDegraded       metric.Int64Counter
	probabilityFailures  metric.Int64Counter
	probabilityLatencyMS metric.Float64Histogram
}

// NewMetrics registers the scoring instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.claimsScored, err = meter.Int64Counter("claimrisk.claims.scored",
		metric.WithDescription("Claims scored, by outcome and mode")); err != nil {
		return nil, fmt.Errorf("failed to create claims counter: %w", err)
	}
	if m.alarmsRaised, err = meter.Int64Counter("claimrisk.alarms.raised",
		metric.WithDescription("Alarms raised, by type and severity")); err != nil {
		return nil, fmt.Errorf("failed to create alarms counter: %w", err)
	}
	if m.checksDegraded, err = meter.Int64Counter("claimrisk.checks.degraded",
		metric.WithDescription("Checks that could not consult all inputs, by type")); err != nil {
		return nil, fmt.Errorf("failed to create degraded counter: %w", err)
	}
	if m.probabilityFailures, err = meter.Int64Counter("claimrisk.probability.failures",
		metric.WithDescription("Failed fraud probability requests")); err != nil {
		return nil, fmt.Errorf("failed to create probability failure counter: %w", err)
	}
	if m.probabilityLatencyMS, err = meter.Float64Histogram("claimrisk.probability.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Fraud probability request latency")); err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	return &m, nil
}

func (m *Metrics) recordReport(ctx context.Context, report service.AlarmReport) {
	if m == nil {
		return
	}
	for _, a := range report.Alarms {
		m.alarmsRaised.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", a.Type.String()),
			attribute.String("severity", a.Severity.String()),
		))
	}
	for _, f := range report.Failures {
		m.checksDegraded.Add(ctx, 1, metric.WithAttributes(attribute.String("type", f.Type.String())))
	}
}

func (m *Metrics) recordProbability(ctx context.Context, latencyMS float64, err error) {
	if m == nil {
		return
	}
	m.probabilityLatencyMS.Record(ctx, latencyMS)
	if err != nil {
		m.probabilityFailures.Add(ctx, 1)
	}
}

func (m *Metrics) recordDecision(ctx context.Context, d model.Decision) {
	if m == nil {
		return
	}
	m.claimsScored.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", d.Outcome.String()),
		attribute.String("mode", d.Mode.String()),
	))
}
