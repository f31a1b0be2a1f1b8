package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/model"
)

// ScoreClaimRequest is the input DTO for the ScoreClaim use case.
type ScoreClaimRequest struct {
	Timestamp       time.Time       `json:"timestamp"`
	Amount          decimal.Decimal `json:"amount"`
	ClaimantID      string          `json:"claimant_id"`
	Provider        string          `json:"provider"`
	Notes           string          `json:"notes"`
	Location        string          `json:"location"`
	ReportDelayDays int             `json:"report_delay_days"`
	IsNewBank       bool            `json:"is_new_bank"`
	// AllowAlarmsOnly accepts a decision computed without a fraud
	// probability when the probability source fails.
	AllowAlarmsOnly bool `json:"allow_alarms_only"`
	// DryRun skips recording and event publication.
	DryRun bool `json:"dry_run"`
}

// ClaimParams maps the request onto the domain constructor input.
func (r ScoreClaimRequest) ClaimParams() model.ClaimParams {
	return model.ClaimParams{
		Timestamp:       r.Timestamp,
		Amount:          r.Amount,
		ClaimantID:      r.ClaimantID,
		Provider:        r.Provider,
		Notes:           r.Notes,
		Location:        r.Location,
		ReportDelayDays: r.ReportDelayDays,
		IsNewBank:       r.IsNewBank,
	}
}

// AlarmDTO is the wire form of an alarm.
type AlarmDTO struct {
	Evidence    map[string]any `json:"evidence,omitempty"`
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
}

// CheckFailureDTO names a check that could not consult all of its inputs.
type CheckFailureDTO struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// AssessmentResponse is the output DTO returned after scoring a claim.
type AssessmentResponse struct {
	ScoredAt       time.Time          `json:"scored_at"`
	Probability    *float64           `json:"probability"`
	Features       map[string]float64 `json:"features"`
	ClaimantID     string             `json:"claimant_id"`
	Provider       string             `json:"provider"`
	Amount         string             `json:"amount"`
	Decision       string             `json:"decision"`
	Mode           string             `json:"mode"`
	TotalRisk      string             `json:"total_risk"`
	OverriddenBy   []string           `json:"overridden_by,omitempty"`
	Alarms         []AlarmDTO         `json:"alarms"`
	DegradedChecks []CheckFailureDTO  `json:"degraded_checks,omitempty"`
	ID             uuid.UUID          `json:"id"`
	Overridden     bool               `json:"overridden"`
	Degraded       bool               `json:"degraded"`
}

// GetAssessmentRequest is the input DTO for retrieving an assessment.
type GetAssessmentRequest struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(a *model.ClaimAssessment) AssessmentResponse {
	d := a.Decision()
	claim := a.Claim()

	resp := AssessmentResponse{
		ID:         a.ID(),
		ClaimantID: claim.ClaimantID(),
		Provider:   claim.Provider(),
		Amount:     claim.Amount().String(),
		Decision:   d.Outcome.String(),
		Mode:       d.Mode.String(),
		TotalRisk:  d.TotalRisk.String(),
		Overridden: d.Overridden,
		Features:   a.Features().Map(),
		Alarms:     AlarmsFromModel(d.Alarms),
		Degraded:   a.Degraded(),
		ScoredAt:   a.ScoredAt(),
	}

	if d.HasProbability {
		p := d.Probability
		resp.Probability = &p
	}
	for _, t := range d.OverriddenBy {
		resp.OverriddenBy = append(resp.OverriddenBy, t.String())
	}
	for _, f := range a.Failures() {
		resp.DegradedChecks = append(resp.DegradedChecks, CheckFailureDTO{Type: f.Type.String(), Reason: f.Reason})
	}

	return resp
}

// AlarmsFromModel maps alarms to their wire form, preserving order.
func AlarmsFromModel(alarms []model.Alarm) []AlarmDTO {
	out := make([]AlarmDTO, 0, len(alarms))
	for _, a := range alarms {
		out = append(out, AlarmDTO{
			Type:        a.Type.String(),
			Severity:    a.Severity.String(),
			Description: a.Description,
			Evidence:    a.Evidence,
		})
	}
	return out
}
