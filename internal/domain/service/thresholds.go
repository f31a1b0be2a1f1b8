package service

import "time"

// Thresholds centralises every tunable constant used by the alarm checks.
type Thresholds struct {
	SuspiciousPhrases   []string      `mapstructure:"suspicious_phrases" yaml:"suspicious_phrases"`
	IndicatorTokens     []string      `mapstructure:"indicator_tokens" yaml:"indicator_tokens"`
	FraudKeywords       []string      `mapstructure:"fraud_keywords" yaml:"fraud_keywords"`
	WeatherKeywords     []string      `mapstructure:"weather_keywords" yaml:"weather_keywords"`
	ColdKeywords        []string      `mapstructure:"cold_keywords" yaml:"cold_keywords"`
	OutOfNetworkMarkers []string      `mapstructure:"out_of_network_markers" yaml:"out_of_network_markers"`
	DefaultResidence    string        `mapstructure:"default_residence" yaml:"default_residence"`
	HistoryWindow       time.Duration `mapstructure:"history_window" yaml:"history_window"`
	MinClaimGap         time.Duration `mapstructure:"min_claim_gap" yaml:"min_claim_gap"`

	HighAmount            float64 `mapstructure:"high_amount" yaml:"high_amount"`
	HighAmountAvgMultiple float64 `mapstructure:"high_amount_avg_multiple" yaml:"high_amount_avg_multiple"`
	IQRMultiplier         float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	KeywordWeight         float64 `mapstructure:"keyword_weight" yaml:"keyword_weight"`
	KeywordScoreMedium    float64 `mapstructure:"keyword_score_medium" yaml:"keyword_score_medium"`
	NegativeSentiment     float64 `mapstructure:"negative_sentiment" yaml:"negative_sentiment"`
	LocationMediumMiles   float64 `mapstructure:"location_medium_miles" yaml:"location_medium_miles"`
	LocationHighMiles     float64 `mapstructure:"location_high_miles" yaml:"location_high_miles"`
	DuplicateSimilarity   float64 `mapstructure:"duplicate_similarity" yaml:"duplicate_similarity"`
	VendorRiskThreshold   float64 `mapstructure:"vendor_risk_threshold" yaml:"vendor_risk_threshold"`
	BlacklistFallbackRisk float64 `mapstructure:"blacklist_fallback_risk" yaml:"blacklist_fallback_risk"`
	ColdInjuryMaxTempC    float64 `mapstructure:"cold_injury_max_temp_c" yaml:"cold_injury_max_temp_c"`

	LateReportingDays     int  `mapstructure:"late_reporting_days" yaml:"late_reporting_days"`
	LateReportingHighDays int  `mapstructure:"late_reporting_high_days" yaml:"late_reporting_high_days"`
	IQRMinSamples         int  `mapstructure:"iqr_min_samples" yaml:"iqr_min_samples"`
	RepeatClaimLimit      int  `mapstructure:"repeat_claim_limit" yaml:"repeat_claim_limit"`
	PhraseHighMatches     int  `mapstructure:"phrase_high_matches" yaml:"phrase_high_matches"`
	PriorNotesLimit       int  `mapstructure:"prior_notes_limit" yaml:"prior_notes_limit"`
	UnusualHourStart      int  `mapstructure:"unusual_hour_start" yaml:"unusual_hour_start"`
	UnusualHourEnd        int  `mapstructure:"unusual_hour_end" yaml:"unusual_hour_end"`
	WeekendSignal         bool `mapstructure:"weekend_signal" yaml:"weekend_signal"`
}

// DefaultThresholds returns the production rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SuspiciousPhrases: []string{
			"staged accident", "fake injury", "quick cash", "exaggerated pain",
			"ghost patient", "duplicate claim", "cash only", "out-of-network",
			"new bank account", "late reporting", "blacklist hit", "fake vendor",
			"fraudulent billing", "false invoice", "no witnesses", "inflated bill",
		},
		IndicatorTokens: []string{"fake", "staged", "ghost", "exaggerated"},
		FraudKeywords: []string{
			"urgent", "cash", "untraceable", "settle quickly", "no receipt",
			"lawyer", "attorney", "lost receipt", "friend", "backdated",
			"inflated", "whiplash", "total loss", "stolen",
		},
		WeatherKeywords: []string{
			"slip", "slipped", "slippery", "storm", "rain", "wet", "flood", "hail",
		},
		ColdKeywords: []string{
			"cold", "ice", "icy", "snow", "frost", "frostbite", "freezing", "hypothermia", "sleet",
		},
		OutOfNetworkMarkers: []string{"out-of-network", "out_of_network", "non-network", "non_network"},
		HistoryWindow:       365 * 24 * time.Hour,
		MinClaimGap:         24 * time.Hour,

		HighAmount:            10000,
		HighAmountAvgMultiple: 3,
		IQRMultiplier:         1.5,
		KeywordWeight:         0.25,
		KeywordScoreMedium:    0.5,
		NegativeSentiment:     -0.5,
		LocationMediumMiles:   50,
		LocationHighMiles:     100,
		DuplicateSimilarity:   0.8,
		VendorRiskThreshold:   0.7,
		BlacklistFallbackRisk: 0.95,
		ColdInjuryMaxTempC:    20,

		LateReportingDays:     7,
		LateReportingHighDays: 14,
		IQRMinSamples:         4,
		RepeatClaimLimit:      3,
		PhraseHighMatches:     2,
		PriorNotesLimit:       5,
		UnusualHourStart:      2,
		UnusualHourEnd:        5,
	}
}
