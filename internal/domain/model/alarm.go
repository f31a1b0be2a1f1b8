package model

import (
	"math"

	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// Evidence keys shared between the checks that write them and the feature
// extractor that reads them.
const (
	EvidenceDelayDays    = "delay_days"
	EvidenceLimitDays    = "limit_days"
	EvidenceMatches      = "matches"
	EvidenceMatchCount   = "match_count"
	EvidenceReason       = "reason"
	EvidenceAmount       = "amount"
	EvidenceTriggers     = "triggers"
	EvidenceAverage      = "average"
	EvidenceCount        = "count"
	EvidenceKeywords     = "keywords"
	EvidenceKeywordCount = "keyword_count"
	EvidenceSentiment    = "sentiment"
	EvidenceScore        = "score"
	EvidenceMiles        = "miles"
	EvidenceSimilarity   = "similarity"
	EvidenceRiskScore    = "risk_score"
	EvidenceFallback     = "fallback"
	EvidenceSignals      = "signals"
	EvidenceMismatches   = "mismatches"
	EvidenceDegraded     = "degraded"
)

// Evidence is the check-specific structured payload attached to an alarm.
type Evidence map[string]any

// Float returns the numeric value stored under key. Non-numeric, missing and
// non-finite values report ok=false.
func (e Evidence) Float(key string) (float64, bool) {
	v, found := e[key]
	if !found {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatOr returns Float(key) or def when the value is absent or unusable.
func (e Evidence) FloatOr(key string, def float64) float64 {
	if f, ok := e.Float(key); ok {
		return f
	}
	return def
}

// Strings returns the string list stored under key.
func (e Evidence) Strings(key string) []string {
	switch v := e[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Bool returns the boolean stored under key.
func (e Evidence) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// Alarm is a single rule-based fraud indicator raised for a claim.
type Alarm struct {
	Evidence    Evidence              `json:"evidence,omitempty"`
	Type        valueobject.AlarmType `json:"type"`
	Severity    valueobject.Severity  `json:"severity"`
	Description string                `json:"description"`
}

// NewAlarm builds an alarm; a nil evidence map is replaced with an empty one.
func NewAlarm(t valueobject.AlarmType, sev valueobject.Severity, description string, evidence Evidence) Alarm {
	if evidence == nil {
		evidence = Evidence{}
	}
	return Alarm{
		Type:        t,
		Severity:    sev,
		Description: description,
		Evidence:    evidence,
	}
}

// FindAlarm returns the first alarm of the given type.
func FindAlarm(alarms []Alarm, t valueobject.AlarmType) (Alarm, bool) {
	for _, a := range alarms {
		if a.Type.Equal(t) {
			return a, true
		}
	}
	return Alarm{}, false
}

// CheckFailure records a check that could not produce a result.
type CheckFailure struct {
	Err    error                 `json:"-"`
	Type   valueobject.AlarmType `json:"type"`
	Reason string                `json:"reason"`
}
