package model

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// Decision is the outcome of scoring one claim together with everything that
// contributed to it.
type Decision struct {
	TotalRisk      decimal.Decimal             `json:"total_risk"`
	Outcome        valueobject.DecisionOutcome `json:"outcome"`
	Mode           valueobject.ScoringMode     `json:"mode"`
	Alarms         []Alarm                     `json:"alarms"`
	OverriddenBy   []valueobject.AlarmType     `json:"overridden_by,omitempty"`
	Probability    float64                     `json:"probability"`
	HasProbability bool                        `json:"has_probability"`
	Overridden     bool                        `json:"overridden"`
}
