package event

import (
	"time"

	"github.com/bibbank/claimrisk/pkg/events"
)

const (
	// EventTypeClaimScored is emitted for every scored claim.
	EventTypeClaimScored = "claimrisk.claim.scored"

	// EventTypeClaimRejected is emitted when a claim is scored REJECT.
	EventTypeClaimRejected = "claimrisk.claim.rejected"

	// AggregateTypeAssessment names the aggregate that produces these events.
	AggregateTypeAssessment = "ClaimAssessment"
)

// ClaimScored is published once a claim has a decision.
type ClaimScored struct {
	ScoredAt time.Time `json:"scored_at"`
	events.BaseEvent
	ClaimantID  string   `json:"claimant_id"`
	Provider    string   `json:"provider"`
	Outcome     string   `json:"outcome"`
	Mode        string   `json:"mode"`
	Alarms      []string `json:"alarms"`
	Probability float64  `json:"probability"`
	TotalRisk   float64  `json:"total_risk"`
	Degraded    bool     `json:"degraded"`
}

// NewClaimScored builds a ClaimScored event for the given assessment.
func NewClaimScored(
	assessmentID, claimantID, provider, outcome, mode string,
	probability, totalRisk float64,
	alarms []string,
	degraded bool,
	scoredAt time.Time,
) ClaimScored {
	return ClaimScored{
		BaseEvent:   events.NewBaseEvent(EventTypeClaimScored, assessmentID, AggregateTypeAssessment),
		ClaimantID:  claimantID,
		Provider:    provider,
		Outcome:     outcome,
		Mode:        mode,
		Probability: probability,
		TotalRisk:   totalRisk,
		Alarms:      alarms,
		Degraded:    degraded,
		ScoredAt:    scoredAt,
	}
}

// ClaimRejected is published when a claim is rejected, so that downstream
// case management can open an investigation.
type ClaimRejected struct {
	RejectedAt time.Time `json:"rejected_at"`
	events.BaseEvent
	ClaimantID   string   `json:"claimant_id"`
	Provider     string   `json:"provider"`
	OverriddenBy []string `json:"overridden_by,omitempty"`
	Alarms       []string `json:"alarms"`
	TotalRisk    float64  `json:"total_risk"`
}

// NewClaimRejected builds a ClaimRejected event for the given assessment.
func NewClaimRejected(
	assessmentID, claimantID, provider string,
	totalRisk float64,
	overriddenBy, alarms []string,
	rejectedAt time.Time,
) ClaimRejected {
	return ClaimRejected{
		BaseEvent:    events.NewBaseEvent(EventTypeClaimRejected, assessmentID, AggregateTypeAssessment),
		ClaimantID:   claimantID,
		Provider:     provider,
		TotalRisk:    totalRisk,
		OverriddenBy: overriddenBy,
		Alarms:       alarms,
		RejectedAt:   rejectedAt,
	}
}
