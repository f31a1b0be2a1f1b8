package service_test

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/port"
)

type mockReferenceData struct {
	blacklist    map[string]string
	residence    string
	notes        []string
	history      port.ClaimHistory
	blacklistErr error
	historyErr   error
	notesErr     error
	residenceErr error
}

func (m *mockReferenceData) LookupBlacklist(_ context.Context, provider string) (string, bool, error) {
	if m.blacklistErr != nil {
		return "", false, m.blacklistErr
	}
	reason, ok := m.blacklist[strings.ToLower(provider)]
	return reason, ok, nil
}

func (m *mockReferenceData) LookupClaimHistory(_ context.Context, _ string, _, _ time.Time) (port.ClaimHistory, error) {
	return m.history, m.historyErr
}

func (m *mockReferenceData) LookupPriorNotes(_ context.Context, _ string, _ int) ([]string, error) {
	return m.notes, m.notesErr
}

func (m *mockReferenceData) LookupResidence(_ context.Context, _ string) (string, error) {
	return m.residence, m.residenceErr
}

type mockWeather struct {
	err     error
	weather port.Weather
}

func (m *mockWeather) Conditions(_ context.Context, _ string, _ time.Time) (port.Weather, error) {
	return m.weather, m.err
}

type mockVendors struct {
	err  error
	risk port.VendorRisk
}

func (m *mockVendors) VendorRisk(_ context.Context, _ string) (port.VendorRisk, error) {
	return m.risk, m.err
}

type mockGeocoder struct {
	places map[string]port.Coordinates
	err    error
}

func (m *mockGeocoder) Geocode(_ context.Context, address string) (port.Coordinates, error) {
	if m.err != nil {
		return port.Coordinates{}, m.err
	}
	c, ok := m.places[address]
	if !ok {
		return port.Coordinates{}, errNotFound
	}
	return c, nil
}

type stringError string

func (e stringError) Error() string { return string(e) }

const (
	errNotFound   = stringError("not found")
	errDown       = stringError("connection refused")
	errDatabaseRO = stringError("database unavailable")
)

var weekdayAfternoon = time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC) // Tuesday

type claimOption func(*model.ClaimParams)

func newClaim(opts ...claimOption) *model.Claim {
	p := model.ClaimParams{
		ClaimantID:      "C-1",
		Provider:        "city_clinic",
		Amount:          decimal.NewFromInt(2000),
		ReportDelayDays: 2,
		Notes:           "rear-ended at a stop light",
		Location:        "Boston, MA",
		Timestamp:       weekdayAfternoon,
	}
	for _, opt := range opts {
		opt(&p)
	}
	c, err := model.NewClaim(p)
	if err != nil {
		panic(err)
	}
	return c
}

func withAmount(v int64) claimOption {
	return func(p *model.ClaimParams) { p.Amount = decimal.NewFromInt(v) }
}

func withDelay(d int) claimOption {
	return func(p *model.ClaimParams) { p.ReportDelayDays = d }
}

func withNotes(n string) claimOption {
	return func(p *model.ClaimParams) { p.Notes = n }
}

func withProvider(pr string) claimOption {
	return func(p *model.ClaimParams) { p.Provider = pr }
}

func withLocation(l string) claimOption {
	return func(p *model.ClaimParams) { p.Location = l }
}

func withTimestamp(ts time.Time) claimOption {
	return func(p *model.ClaimParams) { p.Timestamp = ts }
}

func withNewBank() claimOption {
	return func(p *model.ClaimParams) { p.IsNewBank = true }
}
