package service

import (
	"math"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// DefaultAverageAmount is the historical average claim amount used when no
// better baseline is available.
const DefaultAverageAmount = 5000.0

// FeatureExtractor derives the model feature vector from a claim and its
// alarms. It performs no I/O; the amount baseline is fixed at construction.
type FeatureExtractor struct {
	averageAmount float64
}

// NewFeatureExtractor creates a FeatureExtractor. A non-positive or
// non-finite averageAmount falls back to DefaultAverageAmount.
func NewFeatureExtractor(averageAmount float64) *FeatureExtractor {
	if !(averageAmount > 0) || math.IsInf(averageAmount, 0) {
		averageAmount = DefaultAverageAmount
	}
	return &FeatureExtractor{averageAmount: averageAmount}
}

// AverageAmount returns the baseline used for amount normalisation.
func (e *FeatureExtractor) AverageAmount() float64 {
	return e.averageAmount
}

// Extract maps claim and alarms to the 14-field vector. Every field is
// finite; signals whose alarm is absent are 0.
func (e *FeatureExtractor) Extract(claim *model.Claim, alarms []model.Alarm) model.FeatureVector {
	fv := model.FeatureVector{
		AmountNormalized: claim.Amount().InexactFloat64() / e.averageAmount,
		DelayDays:        float64(claim.ReportDelayDays()),
		IsNewBank:        boolFeature(claim.IsNewBank()),
		NumAlarms:        float64(len(alarms)),
	}

	for _, a := range alarms {
		if a.Severity.Equal(valueobject.SeverityHigh) {
			fv.HighSeverityCount++
		}
	}

	_, outOfNetwork := model.FindAlarm(alarms, valueobject.AlarmOutOfNetworkProvider)
	fv.IsOutOfNetwork = boolFeature(outOfNetwork)

	fv.RepeatCount = evidenceOf(alarms, valueobject.AlarmRepeatClaimant, model.EvidenceCount)
	fv.TextSimilarityScore = evidenceOf(alarms, valueobject.AlarmDuplicateClaims, model.EvidenceSimilarity)
	fv.LocationDistance = evidenceOf(alarms, valueobject.AlarmLocationMismatch, model.EvidenceMiles)
	fv.TimeAnomalyScore = evidenceOf(alarms, valueobject.AlarmTimePatterns, model.EvidenceScore)
	fv.SuspiciousKeywordCount = evidenceOf(alarms, valueobject.AlarmSuspiciousKeywords, model.EvidenceKeywordCount)
	fv.SentimentScore = evidenceOf(alarms, valueobject.AlarmSuspiciousKeywords, model.EvidenceSentiment)
	fv.VendorRiskScore = evidenceOf(alarms, valueobject.AlarmVendorFraud, model.EvidenceRiskScore)

	_, mismatch := model.FindAlarm(alarms, valueobject.AlarmExternalMismatch)
	fv.ExternalMismatchCount = boolFeature(mismatch)

	values := fv.Values()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = 0
		}
	}
	clean, _ := model.FeatureVectorFromValues(values)
	return clean
}

func evidenceOf(alarms []model.Alarm, t valueobject.AlarmType, key string) float64 {
	a, ok := model.FindAlarm(alarms, t)
	if !ok {
		return 0
	}
	return a.Evidence.FloatOr(key, 0)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
