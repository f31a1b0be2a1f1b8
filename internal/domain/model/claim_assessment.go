package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/claimrisk/internal/domain/event"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
	"github.com/bibbank/claimrisk/pkg/events"
)

// ClaimAssessment is the aggregate root recording one scored claim.
type ClaimAssessment struct {
	events.EventCollector

	scoredAt time.Time
	claim    *Claim
	decision Decision
	features FeatureVector
	failures []CheckFailure
	id       uuid.UUID
}

// NewClaimAssessment records the result of scoring claim and emits
// ClaimScored, plus ClaimRejected when the outcome is REJECT.
func NewClaimAssessment(claim *Claim, decision Decision, features FeatureVector, failures []CheckFailure) *ClaimAssessment {
	a := &ClaimAssessment{
		id:       uuid.New(),
		claim:    claim,
		decision: decision,
		features: features,
		failures: failures,
		scoredAt: time.Now().UTC(),
	}

	alarmTypes := make([]string, 0, len(decision.Alarms))
	for _, al := range decision.Alarms {
		alarmTypes = append(alarmTypes, al.Type.String())
	}

	risk, _ := decision.TotalRisk.Float64()
	a.Record(event.NewClaimScored(
		a.id.String(), claim.ClaimantID(), claim.Provider(),
		decision.Outcome.String(), decision.Mode.String(),
		decision.Probability, risk, alarmTypes, a.Degraded(), a.scoredAt,
	))

	if decision.Outcome.Equal(valueobject.OutcomeReject) {
		overrides := make([]string, 0, len(decision.OverriddenBy))
		for _, t := range decision.OverriddenBy {
			overrides = append(overrides, t.String())
		}
		a.Record(event.NewClaimRejected(
			a.id.String(), claim.ClaimantID(), claim.Provider(),
			risk, overrides, alarmTypes, a.scoredAt,
		))
	}

	return a
}

// ReconstructAssessment rebuilds an assessment from persisted data (no events).
func ReconstructAssessment(
	id uuid.UUID,
	claim *Claim,
	decision Decision,
	features FeatureVector,
	failures []CheckFailure,
	scoredAt time.Time,
) *ClaimAssessment {
	return &ClaimAssessment{
		id:       id,
		claim:    claim,
		decision: decision,
		features: features,
		failures: failures,
		scoredAt: scoredAt,
	}
}

// --- Accessors ---

func (a *ClaimAssessment) ID() uuid.UUID            { return a.id }
func (a *ClaimAssessment) Claim() *Claim            { return a.claim }
func (a *ClaimAssessment) Decision() Decision       { return a.decision }
func (a *ClaimAssessment) Features() FeatureVector  { return a.features }
func (a *ClaimAssessment) Failures() []CheckFailure { return a.failures }
func (a *ClaimAssessment) ScoredAt() time.Time      { return a.scoredAt }

// Degraded reports whether any check failed to produce a result.
func (a *ClaimAssessment) Degraded() bool {
	return len(a.failures) > 0
}

// DomainEvents returns all accumulated domain events and clears them.
func (a *ClaimAssessment) DomainEvents() []events.DomainEvent {
	return a.ClearEvents()
}
