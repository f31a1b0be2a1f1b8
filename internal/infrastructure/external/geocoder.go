package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/pkg/httpclient"
)

// GeocodeTTL is how long resolved addresses are cached.
const GeocodeTTL = time.Hour

// ErrAddressNotFound is returned when the geocoder has no match.
var ErrAddressNotFound = errors.New("address not found")

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NominatimGeocoder implements port.Geocoder against a Nominatim search API.
type NominatimGeocoder struct {
	client  *httpclient.Client
	cache   *gocache.Cache
	logger  *slog.Logger
	baseURL string
}

// NewNominatimGeocoder creates a geocoder for the API at baseURL.
func NewNominatimGeocoder(baseURL string, client *httpclient.Client, logger *slog.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		client:  client,
		cache:   newCache(GeocodeTTL),
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Geocode resolves address to coordinates.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (port.Coordinates, error) {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(address))
	if c, ok := cached[port.Coordinates](g.cache, key); ok {
		return c, nil
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	endpoint := g.baseURL + "/search?" + q.Encode()

	var places []nominatimPlace
	err := g.client.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, &places)
	if err != nil {
		return port.Coordinates{}, fmt.Errorf("geocoding %q: %w", address, err)
	}
	if len(places) == 0 {
		return port.Coordinates{}, fmt.Errorf("geocoding %q: %w", address, ErrAddressNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return port.Coordinates{}, fmt.Errorf("geocoding %q: bad latitude %q", address, places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return port.Coordinates{}, fmt.Errorf("geocoding %q: bad longitude %q", address, places[0].Lon)
	}

	coords := port.Coordinates{Lat: lat, Lon: lon}
	g.cache.SetDefault(key, coords)
	g.logger.DebugContext(ctx, "geocoded address",
		slog.String("address", address),
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
	)
	return coords, nil
}
