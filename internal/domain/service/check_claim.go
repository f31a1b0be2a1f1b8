package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// LateReportingCheck flags claims reported long after the incident.
type LateReportingCheck struct {
	limitDays int
	highDays  int
}

// NewLateReportingCheck creates a LateReportingCheck.
func NewLateReportingCheck(th Thresholds) *LateReportingCheck {
	return &LateReportingCheck{limitDays: th.LateReportingDays, highDays: th.LateReportingHighDays}
}

func (c *LateReportingCheck) Type() valueobject.AlarmType { return valueobject.AlarmLateReporting }

func (c *LateReportingCheck) Evaluate(_ context.Context, claim *model.Claim) CheckResult {
	delay := claim.ReportDelayDays()
	if delay <= c.limitDays {
		return quiet()
	}

	sev := valueobject.SeverityMedium
	if delay > c.highDays {
		sev = valueobject.SeverityHigh
	}

	return raised(model.NewAlarm(c.Type(), sev,
		fmt.Sprintf("claim reported %d days after the incident (limit %d)", delay, c.limitDays),
		model.Evidence{
			model.EvidenceDelayDays: delay,
			model.EvidenceLimitDays: c.limitDays,
		}))
}

// NewBankCheck flags payouts requested to a recently opened bank account.
type NewBankCheck struct{}

func (c *NewBankCheck) Type() valueobject.AlarmType { return valueobject.AlarmNewBank }

func (c *NewBankCheck) Evaluate(_ context.Context, claim *model.Claim) CheckResult {
	if !claim.IsNewBank() {
		return quiet()
	}
	return raised(model.NewAlarm(c.Type(), valueobject.SeverityMedium,
		"payout requested to a newly opened bank account", nil))
}

// MarkerNetwork is the fallback provider directory used when no network
// registry is configured: a provider is out of network when its identifier
// carries one of the markers.
type MarkerNetwork struct {
	markers []string
}

// NewMarkerNetwork creates a MarkerNetwork.
func NewMarkerNetwork(markers []string) *MarkerNetwork {
	return &MarkerNetwork{markers: markers}
}

// IsInNetwork implements port.ProviderNetwork.
func (n *MarkerNetwork) IsInNetwork(_ context.Context, provider string) (bool, error) {
	p := strings.ToLower(provider)
	for _, m := range n.markers {
		if m != "" && strings.Contains(p, strings.ToLower(m)) {
			return false, nil
		}
	}
	return true, nil
}

// OutOfNetworkCheck flags providers outside the approved network.
type OutOfNetworkCheck struct {
	network port.ProviderNetwork
}

// NewOutOfNetworkCheck creates an OutOfNetworkCheck.
func NewOutOfNetworkCheck(network port.ProviderNetwork) *OutOfNetworkCheck {
	return &OutOfNetworkCheck{network: network}
}

func (c *OutOfNetworkCheck) Type() valueobject.AlarmType {
	return valueobject.AlarmOutOfNetworkProvider
}

func (c *OutOfNetworkCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	inNetwork, err := c.network.IsInNetwork(ctx, claim.Provider())
	if err != nil {
		return CheckResult{Err: checkUnavailable("provider network lookup", err)}
	}
	if inNetwork {
		return quiet()
	}
	return raised(model.NewAlarm(c.Type(), valueobject.SeverityMedium,
		fmt.Sprintf("provider %q is not in the approved network", claim.Provider()), nil))
}

// BlacklistCheck flags blacklisted providers.
type BlacklistCheck struct {
	refs port.ReferenceData
}

// NewBlacklistCheck creates a BlacklistCheck.
func NewBlacklistCheck(refs port.ReferenceData) *BlacklistCheck {
	return &BlacklistCheck{refs: refs}
}

func (c *BlacklistCheck) Type() valueobject.AlarmType { return valueobject.AlarmBlacklistHit }

func (c *BlacklistCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	reason, found, err := c.refs.LookupBlacklist(ctx, claim.Provider())
	if err != nil {
		return CheckResult{Err: referenceUnavailable("blacklist lookup", err)}
	}
	if !found {
		return quiet()
	}
	return raised(model.NewAlarm(c.Type(), valueobject.SeverityHigh,
		fmt.Sprintf("provider %q is blacklisted: %s", claim.Provider(), reason),
		model.Evidence{model.EvidenceReason: reason}))
}
