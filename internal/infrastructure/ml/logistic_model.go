package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/bibbank/claimrisk/internal/domain/model"
)

// Coefficients parameterise the local logistic model. Weights are keyed by
// feature name; missing names weigh zero.
type Coefficients struct {
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
}

// DefaultCoefficients is the built-in scorer used when no model service is
// configured. It favours amount, alarm counts and negative sentiment.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Intercept: -3.0,
		Weights: map[string]float64{
			"amount_normalized":        0.45,
			"delay_days":               0.04,
			"is_new_bank":              0.6,
			"is_out_of_network":        0.4,
			"num_alarms":               0.35,
			"high_severity_count":      0.5,
			"repeat_count":             0.15,
			"text_similarity_score":    1.0,
			"location_distance":        0.002,
			"time_anomaly_score":       0.5,
			"suspicious_keyword_count": 0.2,
			"sentiment_score":          -0.8,
			"vendor_risk_score":        1.2,
			"external_mismatch_count":  0.5,
		},
	}
}

// LoadCoefficients reads coefficients from a JSON file.
func LoadCoefficients(path string) (Coefficients, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Coefficients{}, fmt.Errorf("reading coefficients: %w", err)
	}
	var c Coefficients
	if err := json.Unmarshal(raw, &c); err != nil {
		return Coefficients{}, fmt.Errorf("parsing coefficients %s: %w", path, err)
	}
	known := make(map[string]bool, model.FeatureCount)
	for _, name := range model.FeatureNames() {
		known[name] = true
	}
	for name := range c.Weights {
		if !known[name] {
			return Coefficients{}, fmt.Errorf("coefficients %s: unknown feature %q", path, name)
		}
	}
	return c, nil
}

// LogisticModel implements port.ProbabilitySource in process.
type LogisticModel struct {
	logger    *slog.Logger
	weights   [model.FeatureCount]float64
	intercept float64
}

// NewLogisticModel creates a LogisticModel from coefficients.
func NewLogisticModel(c Coefficients, logger *slog.Logger) *LogisticModel {
	m := &LogisticModel{logger: logger, intercept: c.Intercept}
	for i, name := range model.FeatureNames() {
		m.weights[i] = c.Weights[name]
	}
	return m
}

// Predict returns sigmoid(intercept + w·x).
func (m *LogisticModel) Predict(ctx context.Context, features model.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	z := m.intercept
	for i, v := range features.Values() {
		z += m.weights[i] * v
	}
	p := 1 / (1 + math.Exp(-z))

	m.logger.DebugContext(ctx, "local model prediction",
		slog.Float64("logit", z),
		slog.Float64("probability", p),
	)
	return p, nil
}
