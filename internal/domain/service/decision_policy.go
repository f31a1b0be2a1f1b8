package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// PolicyConfig holds every constant of the decision policy.
type PolicyConfig struct {
	// Weights maps a severity name (low, medium, high) to its risk weight.
	Weights map[string]float64 `mapstructure:"weights" yaml:"weights"`
	// OverrideAlarms force REJECT whenever one of them is raised.
	OverrideAlarms []string `mapstructure:"override_alarms" yaml:"override_alarms"`
	// ApproveBelow: total risk strictly below approves.
	ApproveBelow float64 `mapstructure:"approve_below" yaml:"approve_below"`
	// RejectAbove: total risk strictly above rejects.
	RejectAbove float64 `mapstructure:"reject_above" yaml:"reject_above"`
	// CapTotalRisk clamps total risk to 1 before it is compared and reported.
	CapTotalRisk bool `mapstructure:"cap_total_risk" yaml:"cap_total_risk"`
}

// DefaultPolicyConfig returns the production policy.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Weights: map[string]float64{
			"high":   0.30,
			"medium": 0.15,
			"low":    0.05,
		},
		OverrideAlarms: []string{
			valueobject.AlarmBlacklistHit.String(),
			valueobject.AlarmHighAmount.String(),
		},
		ApproveBelow: 0.3,
		RejectAbove:  0.7,
	}
}

// DecisionPolicy maps a fraud probability and an alarm list to a decision.
// It is stateless; arithmetic is exact decimal so threshold boundaries
// compare as written.
type DecisionPolicy struct {
	weights      map[valueobject.Severity]decimal.Decimal
	overrides    []valueobject.AlarmType
	approveBelow decimal.Decimal
	rejectAbove  decimal.Decimal
	capRisk      bool
}

// NewDecisionPolicy validates cfg and builds a DecisionPolicy.
func NewDecisionPolicy(cfg PolicyConfig) (*DecisionPolicy, error) {
	p := &DecisionPolicy{
		weights:      make(map[valueobject.Severity]decimal.Decimal, len(cfg.Weights)),
		approveBelow: decimal.NewFromFloat(cfg.ApproveBelow),
		rejectAbove:  decimal.NewFromFloat(cfg.RejectAbove),
		capRisk:      cfg.CapTotalRisk,
	}

	for name, w := range cfg.Weights {
		sev, err := valueobject.SeverityFromString(name)
		if err != nil {
			return nil, fmt.Errorf("policy weights: %w", err)
		}
		if w < 0 {
			return nil, fmt.Errorf("policy weight for %s must not be negative", name)
		}
		p.weights[sev] = decimal.NewFromFloat(w)
	}
	for _, sev := range []valueobject.Severity{valueobject.SeverityLow, valueobject.SeverityMedium, valueobject.SeverityHigh} {
		if _, ok := p.weights[sev]; !ok {
			return nil, fmt.Errorf("policy weights: missing weight for %s", sev)
		}
	}

	for _, name := range cfg.OverrideAlarms {
		t, err := valueobject.AlarmTypeFromString(name)
		if err != nil {
			return nil, fmt.Errorf("policy overrides: %w", err)
		}
		p.overrides = append(p.overrides, t)
	}

	if p.approveBelow.GreaterThan(p.rejectAbove) {
		return nil, fmt.Errorf("approve threshold %s exceeds reject threshold %s", p.approveBelow, p.rejectAbove)
	}

	return p, nil
}

// Decide combines probability and alarms: total risk is the probability plus
// the severity weight of every alarm, and override alarms force REJECT.
func (p *DecisionPolicy) Decide(probability float64, alarms []model.Alarm) model.Decision {
	d := p.decide(decimal.NewFromFloat(probability), alarms)
	d.Probability = probability
	d.HasProbability = true
	d.Mode = valueobject.ModeFull
	return d
}

// DecideProbabilityOnly decides from the probability alone, without
// overrides. Used when no alarm could be evaluated.
func (p *DecisionPolicy) DecideProbabilityOnly(probability float64) model.Decision {
	risk := p.clamp(decimal.NewFromFloat(probability))
	return model.Decision{
		Outcome:        p.outcome(risk),
		Probability:    probability,
		HasProbability: true,
		TotalRisk:      risk,
		Alarms:         []model.Alarm{},
		Mode:           valueobject.ModeProbabilityOnly,
	}
}

// DecideAlarmsOnly decides without a probability, as if it were 0. Callers
// must opt into this explicitly when the probability source has failed.
func (p *DecisionPolicy) DecideAlarmsOnly(alarms []model.Alarm) model.Decision {
	d := p.decide(decimal.Zero, alarms)
	d.Mode = valueobject.ModeAlarmsOnly
	return d
}

// Weight returns the configured weight of a severity.
func (p *DecisionPolicy) Weight(sev valueobject.Severity) decimal.Decimal {
	return p.weights[sev]
}

func (p *DecisionPolicy) decide(base decimal.Decimal, alarms []model.Alarm) model.Decision {
	risk := base
	for _, a := range alarms {
		risk = risk.Add(p.weights[a.Severity])
	}
	risk = p.clamp(risk)

	if alarms == nil {
		alarms = []model.Alarm{}
	}
	d := model.Decision{
		TotalRisk: risk,
		Alarms:    alarms,
		Outcome:   p.outcome(risk),
	}

	for _, t := range p.overrides {
		if _, ok := model.FindAlarm(alarms, t); ok {
			d.OverriddenBy = append(d.OverriddenBy, t)
		}
	}
	if len(d.OverriddenBy) > 0 {
		d.Overridden = true
		d.Outcome = valueobject.OutcomeReject
	}

	return d
}

func (p *DecisionPolicy) outcome(risk decimal.Decimal) valueobject.DecisionOutcome {
	switch {
	case risk.LessThan(p.approveBelow):
		return valueobject.OutcomeApprove
	case risk.GreaterThan(p.rejectAbove):
		return valueobject.OutcomeReject
	default:
		return valueobject.OutcomeReview
	}
}

func (p *DecisionPolicy) clamp(risk decimal.Decimal) decimal.Decimal {
	if p.capRisk && risk.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return risk
}
