package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/pkg/httpclient"
)

// VendorTTL is how long vendor verdicts are cached.
const VendorTTL = 24 * time.Hour

type vendorResponse struct {
	Reason     string  `json:"reason"`
	RiskScore  float64 `json:"risk_score"`
	Fraudulent bool    `json:"is_fraudulent"`
}

// VendorClient implements port.VendorRiskProvider against a vendor
// verification API exposing GET {url}/check?vendor=.
type VendorClient struct {
	client  *httpclient.Client
	cache   *gocache.Cache
	logger  *slog.Logger
	baseURL string
	apiKey  string
}

// NewVendorClient creates a vendor-risk client. apiKey may be empty.
func NewVendorClient(baseURL, apiKey string, client *httpclient.Client, logger *slog.Logger) *VendorClient {
	return &VendorClient{
		client:  client,
		cache:   newCache(VendorTTL),
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// VendorRisk returns the external risk verdict for provider.
func (v *VendorClient) VendorRisk(ctx context.Context, provider string) (port.VendorRisk, error) {
	key := "vendor:" + strings.ToLower(strings.TrimSpace(provider))
	if r, ok := cached[port.VendorRisk](v.cache, key); ok {
		return r, nil
	}

	endpoint := v.baseURL + "/check?" + url.Values{"vendor": {provider}}.Encode()

	var resp vendorResponse
	err := v.client.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if v.apiKey != "" {
			req.Header.Set("X-API-Key", v.apiKey)
		}
		return req, nil
	}, &resp)
	if err != nil {
		return port.VendorRisk{}, fmt.Errorf("vendor check %q: %w", provider, err)
	}
	if resp.RiskScore < 0 || resp.RiskScore > 1 {
		return port.VendorRisk{}, fmt.Errorf("vendor check %q: risk score %v out of range", provider, resp.RiskScore)
	}

	risk := port.VendorRisk{Score: resp.RiskScore, Fraudulent: resp.Fraudulent}
	v.cache.SetDefault(key, risk)
	v.logger.DebugContext(ctx, "vendor risk",
		slog.String("provider", provider),
		slog.Float64("risk_score", risk.Score),
		slog.Bool("is_fraudulent", risk.Fraudulent),
		slog.String("reason", resp.Reason),
	)
	return risk, nil
}
