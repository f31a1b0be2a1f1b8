package valueobject

import "fmt"

// AlarmType identifies one of the rule checks that can raise an alarm.
type AlarmType struct {
	value string
}

var (
	AlarmLateReporting         = AlarmType{value: "late_reporting"}
	AlarmNewBank               = AlarmType{value: "new_bank"}
	AlarmOutOfNetworkProvider  = AlarmType{value: "out_of_network_provider"}
	AlarmBlacklistHit          = AlarmType{value: "blacklist_hit"}
	AlarmSuspiciousTextPhrases = AlarmType{value: "suspicious_text_phrases"}
	AlarmHighAmount            = AlarmType{value: "high_amount"}
	AlarmRepeatClaimant        = AlarmType{value: "repeat_claimant"}
	AlarmSuspiciousKeywords    = AlarmType{value: "suspicious_keywords"}
	AlarmLocationMismatch      = AlarmType{value: "location_mismatch"}
	AlarmDuplicateClaims       = AlarmType{value: "duplicate_claims"}
	AlarmVendorFraud           = AlarmType{value: "vendor_fraud"}
	AlarmTimePatterns          = AlarmType{value: "time_patterns"}
	AlarmExternalMismatch      = AlarmType{value: "external_mismatch"}
)

var allAlarmTypes = []AlarmType{
	AlarmLateReporting,
	AlarmNewBank,
	AlarmOutOfNetworkProvider,
	AlarmBlacklistHit,
	AlarmSuspiciousTextPhrases,
	AlarmHighAmount,
	AlarmRepeatClaimant,
	AlarmSuspiciousKeywords,
	AlarmLocationMismatch,
	AlarmDuplicateClaims,
	AlarmVendorFraud,
	AlarmTimePatterns,
	AlarmExternalMismatch,
}

// AllAlarmTypes returns every alarm type in canonical registration order.
func AllAlarmTypes() []AlarmType {
	out := make([]AlarmType, len(allAlarmTypes))
	copy(out, allAlarmTypes)
	return out
}

// AlarmTypeFromString reconstructs an AlarmType from its string representation.
func AlarmTypeFromString(s string) (AlarmType, error) {
	for _, t := range allAlarmTypes {
		if t.value == s {
			return t, nil
		}
	}
	return AlarmType{}, fmt.Errorf("invalid alarm type: %s", s)
}

// String returns the string representation.
func (a AlarmType) String() string {
	return a.value
}

// IsZero returns true if the AlarmType has not been set.
func (a AlarmType) IsZero() bool {
	return a.value == ""
}

// Equal checks equality with another AlarmType.
func (a AlarmType) Equal(other AlarmType) bool {
	return a.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (a AlarmType) MarshalText() ([]byte, error) {
	return []byte(a.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AlarmType) UnmarshalText(text []byte) error {
	parsed, err := AlarmTypeFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
