package model

// FeatureCount is the number of fields in a FeatureVector.
const FeatureCount = 14

var featureNames = [FeatureCount]string{
	"amount_normalized",
	"delay_days",
	"is_new_bank",
	"is_out_of_network",
	"num_alarms",
	"high_severity_count",
	"repeat_count",
	"text_similarity_score",
	"location_distance",
	"time_anomaly_score",
	"suspicious_keyword_count",
	"sentiment_score",
	"vendor_risk_score",
	"external_mismatch_count",
}

// FeatureVector is the fixed, ordered numeric summary of a claim and its
// alarms handed to the fraud probability source.
type FeatureVector struct {
	AmountNormalized       float64 `json:"amount_normalized"`
	DelayDays              float64 `json:"delay_days"`
	IsNewBank              float64 `json:"is_new_bank"`
	IsOutOfNetwork         float64 `json:"is_out_of_network"`
	NumAlarms              float64 `json:"num_alarms"`
	HighSeverityCount      float64 `json:"high_severity_count"`
	RepeatCount            float64 `json:"repeat_count"`
	TextSimilarityScore    float64 `json:"text_similarity_score"`
	LocationDistance       float64 `json:"location_distance"`
	TimeAnomalyScore       float64 `json:"time_anomaly_score"`
	SuspiciousKeywordCount float64 `json:"suspicious_keyword_count"`
	SentimentScore         float64 `json:"sentiment_score"`
	VendorRiskScore        float64 `json:"vendor_risk_score"`
	ExternalMismatchCount  float64 `json:"external_mismatch_count"`
}

// FeatureNames returns the field names in vector order.
func FeatureNames() []string {
	out := make([]string, FeatureCount)
	copy(out, featureNames[:])
	return out
}

// Values returns the fields in vector order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.AmountNormalized,
		f.DelayDays,
		f.IsNewBank,
		f.IsOutOfNetwork,
		f.NumAlarms,
		f.HighSeverityCount,
		f.RepeatCount,
		f.TextSimilarityScore,
		f.LocationDistance,
		f.TimeAnomalyScore,
		f.SuspiciousKeywordCount,
		f.SentimentScore,
		f.VendorRiskScore,
		f.ExternalMismatchCount,
	}
}

// Map returns the fields keyed by name.
func (f FeatureVector) Map() map[string]float64 {
	values := f.Values()
	out := make(map[string]float64, FeatureCount)
	for i, name := range featureNames {
		out[name] = values[i]
	}
	return out
}

// FeatureVectorFromValues rebuilds a vector from an ordered slice.
func FeatureVectorFromValues(v []float64) (FeatureVector, bool) {
	if len(v) != FeatureCount {
		return FeatureVector{}, false
	}
	return FeatureVector{
		AmountNormalized:       v[0],
		DelayDays:              v[1],
		IsNewBank:              v[2],
		IsOutOfNetwork:         v[3],
		NumAlarms:              v[4],
		HighSeverityCount:      v[5],
		RepeatCount:            v[6],
		TextSimilarityScore:    v[7],
		LocationDistance:       v[8],
		TimeAnomalyScore:       v[9],
		SuspiciousKeywordCount: v[10],
		SentimentScore:         v[11],
		VendorRiskScore:        v[12],
		ExternalMismatchCount:  v[13],
	}, true
}
