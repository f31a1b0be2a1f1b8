package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/pkg/httpclient"
)

type predictRequest struct {
	Names    []string  `json:"feature_names"`
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
}

// HTTPModelClient implements port.ProbabilitySource against a model serving
// endpoint that accepts POST {url}/predict.
type HTTPModelClient struct {
	client   *httpclient.Client
	logger   *slog.Logger
	endpoint string
}

// NewHTTPModelClient creates a client for the model served at baseURL.
func NewHTTPModelClient(baseURL string, client *httpclient.Client, logger *slog.Logger) *HTTPModelClient {
	return &HTTPModelClient{
		client:   client,
		logger:   logger,
		endpoint: strings.TrimRight(baseURL, "/") + "/predict",
	}
}

// Predict sends the ordered feature vector and returns the fraud probability.
// Range validation is left to the caller.
func (c *HTTPModelClient) Predict(ctx context.Context, features model.FeatureVector) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Names:    model.FeatureNames(),
		Features: features.Values(),
	})
	if err != nil {
		return 0, fmt.Errorf("encoding features: %w", err)
	}

	var resp predictResponse
	err = c.client.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("model prediction: %w", err)
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("model prediction: response has no probability")
	}

	c.logger.DebugContext(ctx, "model prediction",
		slog.Float64("probability", *resp.Probability),
	)
	return *resp.Probability, nil
}
