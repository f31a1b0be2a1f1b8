package service

import "github.com/bibbank/claimrisk/internal/domain/port"

// CheckDeps are the collaborators consulted by the checks. ReferenceData is
// required; the others may be nil and their checks degrade to their
// documented default.
type CheckDeps struct {
	References port.ReferenceData
	Network    port.ProviderNetwork
	Weather    port.WeatherProvider
	Vendors    port.VendorRiskProvider
	Geocoder   port.Geocoder
}

// DefaultChecks returns the thirteen checks in registration order. The order
// is stable and determines the order of alarms in every report.
func DefaultChecks(deps CheckDeps, th Thresholds) []Check {
	text := NewTextAnalyzer()

	network := deps.Network
	if network == nil {
		network = NewMarkerNetwork(th.OutOfNetworkMarkers)
	}

	return []Check{
		NewLateReportingCheck(th),
		&NewBankCheck{},
		NewOutOfNetworkCheck(network),
		NewBlacklistCheck(deps.References),
		NewSuspiciousPhrasesCheck(text, th),
		NewHighAmountCheck(deps.References, th),
		NewRepeatClaimantCheck(deps.References, th),
		NewSuspiciousKeywordsCheck(text, th),
		NewLocationMismatchCheck(deps.References, deps.Geocoder, th),
		NewDuplicateClaimsCheck(deps.References, text, th),
		NewVendorFraudCheck(deps.Vendors, deps.References, th),
		NewTimePatternsCheck(deps.References, th),
		NewExternalMismatchCheck(deps.Weather, text, th),
	}
}
