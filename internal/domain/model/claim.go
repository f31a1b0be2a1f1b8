package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Claim amounts are stored as NUMERIC(14,2).
const (
	AmountScale     = 2
	amountIntDigits = 12
)

var maxClaimAmount = decimal.New(1, amountIntDigits)

// ClaimParams carries the caller-supplied fields of a claim.
type ClaimParams struct {
	Timestamp       time.Time
	Amount          decimal.Decimal
	ClaimantID      string
	Provider        string
	Notes           string
	Location        string
	ReportDelayDays int
	IsNewBank       bool
}

// Claim is an insurance claim submitted for fraud scoring. It is immutable
// once constructed; the pipeline only reads it.
type Claim struct {
	timestamp       time.Time
	amount          decimal.Decimal
	claimantID      string
	provider        string
	notes           string
	location        string
	reportDelayDays int
	isNewBank       bool
}

// NewClaim validates params and builds a Claim. Every violation is reported
// at once in an *InvalidClaimError.
func NewClaim(p ClaimParams) (*Claim, error) {
	var fields []FieldError

	if strings.TrimSpace(p.ClaimantID) == "" {
		fields = append(fields, FieldError{Field: "claimant_id", Message: "is required"})
	}
	if strings.TrimSpace(p.Provider) == "" {
		fields = append(fields, FieldError{Field: "provider", Message: "is required"})
	}
	switch {
	case p.Amount.IsNegative():
		fields = append(fields, FieldError{Field: "amount", Message: "must not be negative"})
	case p.Amount.GreaterThanOrEqual(maxClaimAmount):
		fields = append(fields, FieldError{Field: "amount", Message: "must be less than " + maxClaimAmount.String()})
	case !p.Amount.Equal(p.Amount.Truncate(AmountScale)):
		fields = append(fields, FieldError{Field: "amount", Message: "must have at most 2 decimal places"})
	}
	if p.ReportDelayDays < 0 {
		fields = append(fields, FieldError{Field: "report_delay_days", Message: "must not be negative"})
	}
	if p.Timestamp.IsZero() {
		fields = append(fields, FieldError{Field: "timestamp", Message: "is required"})
	}

	if len(fields) > 0 {
		return nil, &InvalidClaimError{Fields: fields}
	}

	return &Claim{
		timestamp:       p.Timestamp,
		amount:          p.Amount,
		claimantID:      strings.TrimSpace(p.ClaimantID),
		provider:        strings.TrimSpace(p.Provider),
		notes:           p.Notes,
		location:        strings.TrimSpace(p.Location),
		reportDelayDays: p.ReportDelayDays,
		isNewBank:       p.IsNewBank,
	}, nil
}

// --- Accessors ---

func (c *Claim) Timestamp() time.Time    { return c.timestamp }
func (c *Claim) Amount() decimal.Decimal { return c.amount }
func (c *Claim) ClaimantID() string      { return c.claimantID }
func (c *Claim) Provider() string        { return c.provider }
func (c *Claim) Notes() string           { return c.notes }
func (c *Claim) Location() string        { return c.location }
func (c *Claim) ReportDelayDays() int    { return c.reportDelayDays }
func (c *Claim) IsNewBank() bool         { return c.isNewBank }

// Params returns the fields the claim was built from.
func (c *Claim) Params() ClaimParams {
	return ClaimParams{
		Timestamp:       c.timestamp,
		Amount:          c.amount,
		ClaimantID:      c.claimantID,
		Provider:        c.provider,
		Notes:           c.notes,
		Location:        c.location,
		ReportDelayDays: c.reportDelayDays,
		IsNewBank:       c.isNewBank,
	}
}
