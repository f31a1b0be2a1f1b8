package external_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/infrastructure/external"
	"github.com/bibbank/claimrisk/pkg/httpclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{
		UserAgent:      "claimrisk-test",
		Timeout:        time.Second,
		RequestsPerSec: 1000,
		RetryWait:      time.Millisecond,
	})
}

type stubGeocoder struct {
	err    error
	coords port.Coordinates
	calls  int
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (port.Coordinates, error) {
	s.calls++
	return s.coords, s.err
}

func TestNominatimGeocoder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "claimrisk-test", r.Header.Get("User-Agent"))

		if r.URL.Query().Get("q") == "Nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"40.7128","lon":"-74.0060"}]`))
	}))
	defer srv.Close()

	g := external.NewNominatimGeocoder(srv.URL, testClient(), discardLogger())

	c, err := g.Geocode(context.Background(), "New York, NY")
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, c.Lat, 1e-9)
	assert.InDelta(t, -74.0060, c.Lon, 1e-9)

	_, err = g.Geocode(context.Background(), "new york, ny ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second lookup is served from cache")

	_, err = g.Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, external.ErrAddressNotFound)
}

func TestVendorClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/check", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))

		switch r.URL.Query().Get("vendor") {
		case "fake_vendor":
			_, _ = w.Write([]byte(`{"is_fraudulent": true, "risk_score": 0.91, "reason": "reported"}`))
		case "broken":
			_, _ = w.Write([]byte(`{"risk_score": 7}`))
		default:
			_, _ = w.Write([]byte(`{"is_fraudulent": false, "risk_score": 0.1}`))
		}
	}))
	defer srv.Close()

	v := external.NewVendorClient(srv.URL, "key-1", testClient(), discardLogger())

	risk, err := v.VendorRisk(context.Background(), "fake_vendor")
	require.NoError(t, err)
	assert.True(t, risk.Fraudulent)
	assert.InDelta(t, 0.91, risk.Score, 1e-9)

	_, err = v.VendorRisk(context.Background(), "FAKE_VENDOR")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = v.VendorRisk(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestVendorClient_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v := external.NewVendorClient(srv.URL, "", testClient(), discardLogger())
	_, err := v.VendorRisk(context.Background(), "clinic")
	assert.True(t, httpclient.IsStatus(err, http.StatusServiceUnavailable))
}

func TestWeatherClient_Current(t *testing.T) {
	now := time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Boston, MA", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{"weather":[{"main":"Clear"}],"main":{"temp":-3.5}}`))
	}))
	defer srv.Close()

	wc := external.NewWeatherClient(srv.URL, "secret", nil, testClient(), discardLogger(),
		external.WithClock(func() time.Time { return now }))

	obs, err := wc.Conditions(context.Background(), "Boston, MA", now.Add(-3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Clear", obs.Condition)
	assert.InDelta(t, -3.5, obs.TemperatureC, 1e-9)
	assert.Zero(t, obs.PrecipitationMM)

	_, err = wc.Conditions(context.Background(), "Boston, MA", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWeatherClient_Historical(t *testing.T) {
	now := time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/3.0/onecall/timemachine", r.URL.Path)
		assert.Equal(t, "42.36", r.URL.Query().Get("lat"))
		assert.Equal(t, "-71.06", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"data":[{"temp":4,"weather":[{"main":"Rain"}],"rain":{"1h":2.5}}]}`))
	}))
	defer srv.Close()

	geo := &stubGeocoder{coords: port.Coordinates{Lat: 42.36, Lon: -71.06}}
	wc := external.NewWeatherClient(srv.URL, "secret", geo, testClient(), discardLogger(),
		external.WithClock(func() time.Time { return now }))

	obs, err := wc.Conditions(context.Background(), "Boston, MA", now.AddDate(0, 0, -2))
	require.NoError(t, err)
	assert.Equal(t, "Rain", obs.Condition)
	assert.InDelta(t, 2.5, obs.PrecipitationMM, 1e-9)
	assert.Equal(t, 1, geo.calls)

	// Coordinates skip the geocoder.
	_, err = wc.Conditions(context.Background(), "42.36,-71.06", now.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)
}

func TestWeatherClient_Unavailable(t *testing.T) {
	now := time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
	wc := external.NewWeatherClient("http://127.0.0.1:1", "k", nil, testClient(), discardLogger(),
		external.WithClock(func() time.Time { return now }))

	tests := []struct {
		name string
		at   time.Time
	}{
		{name: "older than the history window", at: now.AddDate(0, 0, -30)},
		{name: "future date", at: now.AddDate(0, 0, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wc.Conditions(context.Background(), "Boston, MA", tt.at)
			assert.ErrorIs(t, err, external.ErrWeatherUnavailable)
		})
	}

	t.Run("historical without geocoder", func(t *testing.T) {
		_, err := wc.Conditions(context.Background(), "Boston, MA", now.AddDate(0, 0, -1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no geocoder")
	})

	t.Run("geocoder failure", func(t *testing.T) {
		geo := &stubGeocoder{err: errors.New("nominatim down")}
		wc := external.NewWeatherClient("http://127.0.0.1:1", "k", geo, testClient(), discardLogger(),
			external.WithClock(func() time.Time { return now }))
		_, err := wc.Conditions(context.Background(), "Boston, MA", now.AddDate(0, 0, -1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nominatim down")
	})
}
