package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/service"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

func TestFeatureExtractor_NoAlarms(t *testing.T) {
	fx := service.NewFeatureExtractor(5000)

	fv := fx.Extract(newClaim(withAmount(2000), withDelay(2)), nil)

	assert.Equal(t, model.FeatureVector{AmountNormalized: 0.4, DelayDays: 2}, fv)
}

func TestFeatureExtractor_ReadsEvidence(t *testing.T) {
	alarms := []model.Alarm{
		model.NewAlarm(valueobject.AlarmNewBank, valueobject.SeverityMedium, "", nil),
		model.NewAlarm(valueobject.AlarmOutOfNetworkProvider, valueobject.SeverityMedium, "", nil),
		model.NewAlarm(valueobject.AlarmBlacklistHit, valueobject.SeverityHigh, "", nil),
		model.NewAlarm(valueobject.AlarmRepeatClaimant, valueobject.SeverityMedium, "", model.Evidence{model.EvidenceCount: 5}),
		model.NewAlarm(valueobject.AlarmSuspiciousKeywords, valueobject.SeverityMedium, "", model.Evidence{
			model.EvidenceKeywordCount: 3, model.EvidenceSentiment: -0.6,
		}),
		model.NewAlarm(valueobject.AlarmLocationMismatch, valueobject.SeverityHigh, "", model.Evidence{model.EvidenceMiles: 190.2}),
		model.NewAlarm(valueobject.AlarmDuplicateClaims, valueobject.SeverityHigh, "", model.Evidence{model.EvidenceSimilarity: 0.91}),
		model.NewAlarm(valueobject.AlarmVendorFraud, valueobject.SeverityHigh, "", model.Evidence{model.EvidenceRiskScore: 0.95}),
		model.NewAlarm(valueobject.AlarmTimePatterns, valueobject.SeverityMedium, "", model.Evidence{model.EvidenceScore: 0.5}),
		model.NewAlarm(valueobject.AlarmExternalMismatch, valueobject.SeverityMedium, "", model.Evidence{model.EvidenceCount: 2}),
	}

	fv := service.NewFeatureExtractor(5000).Extract(newClaim(withAmount(10000), withDelay(9), withNewBank()), alarms)

	assert.Equal(t, model.FeatureVector{
		AmountNormalized:       2,
		DelayDays:              9,
		IsNewBank:              1,
		IsOutOfNetwork:         1,
		NumAlarms:              10,
		HighSeverityCount:      4,
		RepeatCount:            5,
		TextSimilarityScore:    0.91,
		LocationDistance:       190.2,
		TimeAnomalyScore:       0.5,
		SuspiciousKeywordCount: 3,
		SentimentScore:         -0.6,
		VendorRiskScore:        0.95,
		ExternalMismatchCount:  1,
	}, fv)
}

func TestFeatureExtractor_IsPureAndFinite(t *testing.T) {
	claim := newClaim(withAmount(7500), withDelay(8))
	alarms := []model.Alarm{
		model.NewAlarm(valueobject.AlarmLocationMismatch, valueobject.SeverityHigh, "", model.Evidence{model.EvidenceMiles: math.Inf(1)}),
		model.NewAlarm(valueobject.AlarmVendorFraud, valueobject.SeverityHigh, "", model.Evidence{model.EvidenceRiskScore: "n/a"}),
	}
	fx := service.NewFeatureExtractor(5000)

	first := fx.Extract(claim, alarms)
	second := fx.Extract(claim, alarms)

	assert.Equal(t, first, second)
	assert.Len(t, first.Values(), model.FeatureCount)
	for i, v := range first.Values() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %d is not finite", i)
	}
	assert.Equal(t, 0.0, first.LocationDistance)
	assert.Equal(t, 0.0, first.VendorRiskScore)
}

func TestFeatureExtractor_BaselineFallback(t *testing.T) {
	assert.Equal(t, service.DefaultAverageAmount, service.NewFeatureExtractor(0).AverageAmount())
	assert.Equal(t, service.DefaultAverageAmount, service.NewFeatureExtractor(math.NaN()).AverageAmount())
	assert.Equal(t, 1234.0, service.NewFeatureExtractor(1234).AverageAmount())
}
