package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/pkg/httpclient"
)

func newClient(retries uint64) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		UserAgent:      "claimrisk-test",
		Timeout:        time.Second,
		RequestsPerSec: 1000,
		MaxRetries:     retries,
		RetryWait:      time.Millisecond,
	})
}

func get(url string) httpclient.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "claimrisk-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, newClient(0).DoJSON(context.Background(), get(srv.URL), &out))
	assert.Equal(t, 42, out.Value)
}

func TestDoJSON_Retries(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retries   uint64
		wantCalls int32
		wantErr   bool
	}{
		{name: "server error is retried until success", status: http.StatusBadGateway, retries: 3, wantCalls: 3},
		{name: "rate limited is retried", status: http.StatusTooManyRequests, retries: 3, wantCalls: 3},
		{name: "retries exhausted", status: http.StatusServiceUnavailable, retries: 1, wantCalls: 2, wantErr: true},
		{name: "client error is permanent", status: http.StatusNotFound, retries: 3, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				// Fail the first two attempts, then succeed.
				if calls.Add(1) <= 2 {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			err := newClient(tt.retries).DoJSON(context.Background(), get(srv.URL), nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, httpclient.IsStatus(err, tt.status))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestDoJSON_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := newClient(2).DoJSON(context.Background(), get(srv.URL), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestDoJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newClient(5).DoJSON(ctx, get(srv.URL), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
