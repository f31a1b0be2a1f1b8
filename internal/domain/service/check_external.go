package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

var errNoProvider = errors.New("signal provider not configured")

// LocationMismatchCheck flags incidents far from the claimant's residence.
type LocationMismatchCheck struct {
	refs             port.ReferenceData
	geocoder         port.Geocoder
	defaultResidence string
	mediumMiles      float64
	highMiles        float64
}

// NewLocationMismatchCheck creates a LocationMismatchCheck. geocoder may be
// nil, in which case only "lat,lon" locations can be compared.
func NewLocationMismatchCheck(refs port.ReferenceData, geocoder port.Geocoder, th Thresholds) *LocationMismatchCheck {
	return &LocationMismatchCheck{
		refs:             refs,
		geocoder:         geocoder,
		defaultResidence: th.DefaultResidence,
		mediumMiles:      th.LocationMediumMiles,
		highMiles:        th.LocationHighMiles,
	}
}

func (c *LocationMismatchCheck) Type() valueobject.AlarmType {
	return valueobject.AlarmLocationMismatch
}

func (c *LocationMismatchCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	if claim.Location() == "" {
		return quiet()
	}

	residence, err := c.refs.LookupResidence(ctx, claim.ClaimantID())
	if err != nil {
		return CheckResult{Err: referenceUnavailable("residence lookup", err)}
	}
	if residence == "" {
		residence = c.defaultResidence
	}
	if residence == "" {
		return quiet()
	}

	home, err := c.resolve(ctx, residence)
	if err != nil {
		return CheckResult{Err: checkUnavailable("geocode residence", err)}
	}
	incident, err := c.resolve(ctx, claim.Location())
	if err != nil {
		return CheckResult{Err: checkUnavailable("geocode incident location", err)}
	}

	miles := HaversineMiles(home, incident)
	if !finite(miles) {
		return CheckResult{Err: checkUnavailable("distance", fmt.Errorf("non-finite distance between %q and %q", residence, claim.Location()))}
	}
	if miles < c.mediumMiles {
		return quiet()
	}

	sev := valueobject.SeverityMedium
	if miles > c.highMiles {
		sev = valueobject.SeverityHigh
	}

	return raised(model.NewAlarm(c.Type(), sev,
		fmt.Sprintf("incident location is %.1f miles from the claimant's residence", miles),
		model.Evidence{model.EvidenceMiles: miles}))
}

func (c *LocationMismatchCheck) resolve(ctx context.Context, place string) (port.Coordinates, error) {
	if coords, ok := ParseCoordinates(place); ok {
		return coords, nil
	}
	if c.geocoder == nil {
		return port.Coordinates{}, errNoProvider
	}
	return c.geocoder.Geocode(ctx, place)
}

// VendorFraudCheck consults the external vendor-risk service and falls back
// to the blacklist when it is unavailable.
type VendorFraudCheck struct {
	vendors      port.VendorRiskProvider
	refs         port.ReferenceData
	threshold    float64
	fallbackRisk float64
}

// NewVendorFraudCheck creates a VendorFraudCheck. vendors may be nil, in
// which case only the blacklist is consulted.
func NewVendorFraudCheck(vendors port.VendorRiskProvider, refs port.ReferenceData, th Thresholds) *VendorFraudCheck {
	return &VendorFraudCheck{
		vendors:      vendors,
		refs:         refs,
		threshold:    th.VendorRiskThreshold,
		fallbackRisk: th.BlacklistFallbackRisk,
	}
}

func (c *VendorFraudCheck) Type() valueobject.AlarmType { return valueobject.AlarmVendorFraud }

func (c *VendorFraudCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	if c.vendors == nil {
		return c.fromBlacklist(ctx, claim, nil)
	}

	risk, err := c.vendors.VendorRisk(ctx, claim.Provider())
	if err != nil {
		return c.fromBlacklist(ctx, claim, checkUnavailable("vendor risk lookup", err))
	}

	if risk.Score <= c.threshold && !risk.Fraudulent {
		return quiet()
	}

	return raised(model.NewAlarm(c.Type(), valueobject.SeverityHigh,
		fmt.Sprintf("vendor %q has external risk score %.2f", claim.Provider(), risk.Score),
		model.Evidence{model.EvidenceRiskScore: risk.Score}))
}

// fromBlacklist decides from the blacklist alone. cause is the vendor
// lookup failure that forced the fallback, if any.
func (c *VendorFraudCheck) fromBlacklist(ctx context.Context, claim *model.Claim, cause error) CheckResult {
	reason, found, err := c.refs.LookupBlacklist(ctx, claim.Provider())
	if err != nil {
		return CheckResult{Err: errors.Join(cause, referenceUnavailable("blacklist lookup", err))}
	}

	result := quiet()
	if found {
		result = raised(model.NewAlarm(c.Type(), valueobject.SeverityHigh,
			fmt.Sprintf("vendor %q is blacklisted: %s", claim.Provider(), reason),
			model.Evidence{
				model.EvidenceRiskScore: c.fallbackRisk,
				model.EvidenceReason:    reason,
				model.EvidenceFallback:  "blacklist",
			}))
	}

	if cause != nil {
		return markDegraded(result, cause)
	}
	return result
}

// ExternalMismatchCheck compares the narrative with the recorded weather at
// the incident location and time.
type ExternalMismatchCheck struct {
	weather     port.WeatherProvider
	text        *TextAnalyzer
	weatherKeys []string
	coldKeys    []string
	coldMaxC    float64
}

// NewExternalMismatchCheck creates an ExternalMismatchCheck. weather may be
// nil, in which case the check never triggers.
func NewExternalMismatchCheck(weather port.WeatherProvider, text *TextAnalyzer, th Thresholds) *ExternalMismatchCheck {
	return &ExternalMismatchCheck{
		weather:     weather,
		text:        text,
		weatherKeys: th.WeatherKeywords,
		coldKeys:    th.ColdKeywords,
		coldMaxC:    th.ColdInjuryMaxTempC,
	}
}

func (c *ExternalMismatchCheck) Type() valueobject.AlarmType {
	return valueobject.AlarmExternalMismatch
}

func (c *ExternalMismatchCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	if c.weather == nil || claim.Location() == "" || strings.TrimSpace(claim.Notes()) == "" {
		return quiet()
	}

	weatherWords := c.text.MatchPhrases(claim.Notes(), c.weatherKeys, nil)
	coldWords := c.text.MatchPhrases(claim.Notes(), c.coldKeys, nil)
	if len(weatherWords) == 0 && len(coldWords) == 0 {
		return quiet()
	}

	w, err := c.weather.Conditions(ctx, claim.Location(), claim.Timestamp())
	if err != nil {
		return CheckResult{Err: checkUnavailable("weather lookup", err)}
	}

	var mismatches []string
	if len(weatherWords) > 0 && !hasPrecipitation(w) {
		mismatches = append(mismatches,
			fmt.Sprintf("notes mention %s but no precipitation was recorded", strings.Join(weatherWords, ", ")))
	}
	if len(coldWords) > 0 && w.TemperatureC > c.coldMaxC {
		mismatches = append(mismatches,
			fmt.Sprintf("notes mention %s but it was %.1f°C", strings.Join(coldWords, ", "), w.TemperatureC))
	}
	if len(mismatches) == 0 {
		return quiet()
	}

	return raised(model.NewAlarm(c.Type(), valueobject.SeverityMedium,
		strings.Join(mismatches, "; "),
		model.Evidence{
			model.EvidenceMismatches: mismatches,
			model.EvidenceCount:      len(mismatches),
		}))
}

func hasPrecipitation(w port.Weather) bool {
	if w.PrecipitationMM > 0 {
		return true
	}
	cond := strings.ToLower(w.Condition)
	for _, k := range []string{"rain", "drizzle", "thunderstorm", "snow", "sleet", "hail", "shower"} {
		if strings.Contains(cond, k) {
			return true
		}
	}
	return false
}
