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
	"github.com/bibbank/claimrisk/internal/domain/service"
	"github.com/bibbank/claimrisk/pkg/httpclient"
)

const (
	// CurrentWeatherTTL caches same-day observations.
	CurrentWeatherTTL = time.Hour
	// HistoricalWeatherTTL caches past-day observations, which do not change.
	HistoricalWeatherTTL = 24 * time.Hour
	// HistoryDays is how far back the historical endpoint reaches.
	HistoryDays = 5
)

// ErrWeatherUnavailable is returned for dates the provider cannot serve.
var ErrWeatherUnavailable = errors.New("weather unavailable for date")

type owmCondition struct {
	Main string `json:"main"`
}

type owmPrecip struct {
	OneHour float64 `json:"1h"`
}

type owmCurrent struct {
	Weather []owmCondition `json:"weather"`
	Rain    owmPrecip      `json:"rain"`
	Snow    owmPrecip      `json:"snow"`
	Main    struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

type owmHistorical struct {
	Data []struct {
		Weather []owmCondition `json:"weather"`
		Rain    owmPrecip      `json:"rain"`
		Snow    owmPrecip      `json:"snow"`
		Temp    float64        `json:"temp"`
	} `json:"data"`
}

// WeatherClient implements port.WeatherProvider against the OpenWeatherMap
// current-weather and one-call time machine APIs.
type WeatherClient struct {
	geocoder port.Geocoder
	client   *httpclient.Client
	cache    *gocache.Cache
	logger   *slog.Logger
	now      func() time.Time
	baseURL  string
	apiKey   string
}

// WeatherOption configures a WeatherClient.
type WeatherOption func(*WeatherClient)

// WithClock overrides the clock used to pick the endpoint.
func WithClock(now func() time.Time) WeatherOption {
	return func(w *WeatherClient) { w.now = now }
}

// NewWeatherClient creates a weather client. The geocoder resolves free-text
// locations for the historical endpoint.
func NewWeatherClient(
	baseURL, apiKey string,
	geocoder port.Geocoder,
	client *httpclient.Client,
	logger *slog.Logger,
	opts ...WeatherOption,
) *WeatherClient {
	w := &WeatherClient{
		geocoder: geocoder,
		client:   client,
		cache:    newCache(CurrentWeatherTTL),
		logger:   logger,
		now:      time.Now,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Conditions returns the weather at location on the day of at.
func (w *WeatherClient) Conditions(ctx context.Context, location string, at time.Time) (port.Weather, error) {
	day := at.UTC().Truncate(24 * time.Hour)
	today := w.now().UTC().Truncate(24 * time.Hour)
	age := int(today.Sub(day).Hours() / 24)

	key := fmt.Sprintf("weather:%s:%s", strings.ToLower(strings.TrimSpace(location)), day.Format(time.DateOnly))
	if cw, ok := cached[port.Weather](w.cache, key); ok {
		return cw, nil
	}

	var (
		result port.Weather
		ttl    time.Duration
		err    error
	)
	switch {
	case age < 0 || age > HistoryDays:
		return port.Weather{}, fmt.Errorf("%w: %s", ErrWeatherUnavailable, day.Format(time.DateOnly))
	case age == 0:
		result, err = w.current(ctx, location)
		ttl = CurrentWeatherTTL
	default:
		result, err = w.historical(ctx, location, day)
		ttl = HistoricalWeatherTTL
	}
	if err != nil {
		return port.Weather{}, err
	}

	w.cache.Set(key, result, ttl)
	w.logger.DebugContext(ctx, "weather observation",
		slog.String("location", location),
		slog.String("condition", result.Condition),
		slog.Float64("temperature_c", result.TemperatureC),
	)
	return result, nil
}

func (w *WeatherClient) current(ctx context.Context, location string) (port.Weather, error) {
	q := url.Values{}
	if c, ok := service.ParseCoordinates(location); ok {
		q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	} else {
		q.Set("q", location)
	}
	q.Set("units", "metric")
	q.Set("appid", w.apiKey)

	var resp owmCurrent
	if err := w.get(ctx, "/data/2.5/weather?"+q.Encode(), &resp); err != nil {
		return port.Weather{}, fmt.Errorf("current weather for %q: %w", location, err)
	}
	return port.Weather{
		Condition:       firstCondition(resp.Weather),
		TemperatureC:    resp.Main.Temp,
		PrecipitationMM: resp.Rain.OneHour + resp.Snow.OneHour,
	}, nil
}

func (w *WeatherClient) historical(ctx context.Context, location string, day time.Time) (port.Weather, error) {
	coords, ok := service.ParseCoordinates(location)
	if !ok {
		if w.geocoder == nil {
			return port.Weather{}, fmt.Errorf("historical weather for %q: no geocoder configured", location)
		}
		var err error
		coords, err = w.geocoder.Geocode(ctx, location)
		if err != nil {
			return port.Weather{}, fmt.Errorf("historical weather for %q: %w", location, err)
		}
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	q.Set("dt", strconv.FormatInt(day.Unix(), 10))
	q.Set("units", "metric")
	q.Set("appid", w.apiKey)

	var resp owmHistorical
	if err := w.get(ctx, "/data/3.0/onecall/timemachine?"+q.Encode(), &resp); err != nil {
		return port.Weather{}, fmt.Errorf("historical weather for %q: %w", location, err)
	}
	if len(resp.Data) == 0 {
		return port.Weather{}, fmt.Errorf("historical weather for %q: %w", location, ErrWeatherUnavailable)
	}
	obs := resp.Data[0]
	return port.Weather{
		Condition:       firstCondition(obs.Weather),
		TemperatureC:    obs.Temp,
		PrecipitationMM: obs.Rain.OneHour + obs.Snow.OneHour,
	}, nil
}

func (w *WeatherClient) get(ctx context.Context, path string, out any) error {
	endpoint := w.baseURL + path
	return w.client.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, out)
}

func firstCondition(conds []owmCondition) string {
	if len(conds) == 0 {
		return "Unknown"
	}
	return conds[0].Main
}
