package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/presentation/rest"
	"github.com/bibbank/claimrisk/pkg/auth"
)

type fakeScorer struct {
	err  error
	resp dto.AssessmentResponse
	got  dto.ScoreClaimRequest
}

func (f *fakeScorer) Execute(_ context.Context, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeReader struct {
	err error
}

func (f *fakeReader) Execute(_ context.Context, req dto.GetAssessmentRequest) (dto.AssessmentResponse, error) {
	if f.err != nil {
		return dto.AssessmentResponse{}, f.err
	}
	return dto.AssessmentResponse{ID: req.AssessmentID, Decision: "approve"}, nil
}

func newRouter(scorer rest.ClaimScorer, reader rest.AssessmentReader, validator auth.TokenValidator, checks map[string]rest.ReadinessCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return rest.NewRouter(rest.RouterConfig{
		Claims:    rest.NewClaimHandler(scorer, reader, logger),
		Health:    rest.NewHealthHandler(checks, logger),
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics") }),
		Validator: validator,
		Logger:    logger,
	})
}

const claimBody = `{
	"timestamp": "2026-03-01T08:00:00Z",
	"amount": "1200.50",
	"claimant_id": "claimant-0001",
	"provider": "Acme Clinic",
	"notes": "rear-ended at a light",
	"location": "Springfield",
	"report_delay_days": 2
}`

func TestScoreClaimEndpoint(t *testing.T) {
	invalid := &model.InvalidClaimError{Fields: []model.FieldError{{Field: "amount", Message: "must be positive"}}}

	tests := []struct {
		scoreErr   error
		name       string
		body       string
		wantStatus int
	}{
		{name: "scored", body: claimBody, wantStatus: http.StatusOK},
		{name: "malformed json", body: `{"amount":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"bogus": 1}`, wantStatus: http.StatusBadRequest},
		{name: "invalid claim", body: claimBody, scoreErr: fmt.Errorf("failed to create claim: %w", invalid), wantStatus: http.StatusUnprocessableEntity},
		{name: "probability source down", body: claimBody, scoreErr: &model.ProbabilitySourceError{Err: errors.New("503")}, wantStatus: http.StatusServiceUnavailable},
		{name: "internal", body: claimBody, scoreErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{err: tt.scoreErr, resp: dto.AssessmentResponse{Decision: "approve"}}
			router := newRouter(scorer, &fakeReader{}, nil, nil)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/claims/score", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestScoreClaimEndpoint_DecodesClaim(t *testing.T) {
	scorer := &fakeScorer{resp: dto.AssessmentResponse{Decision: "review"}}
	router := newRouter(scorer, &fakeReader{}, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/claims/score", strings.NewReader(claimBody)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "claimant-0001", scorer.got.ClaimantID)
	assert.Equal(t, "1200.5", scorer.got.Amount.String())
	assert.Equal(t, 2, scorer.got.ReportDelayDays)
	assert.True(t, scorer.got.Timestamp.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)))

	var resp dto.AssessmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "review", resp.Decision)
}

func TestScoreClaimEndpoint_UnencodableResponse(t *testing.T) {
	nan := math.NaN()
	scorer := &fakeScorer{resp: dto.AssessmentResponse{Decision: "approve", Probability: &nan}}
	router := newRouter(scorer, &fakeReader{}, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/claims/score", strings.NewReader(claimBody)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Error)
}

func TestScoreClaimEndpoint_InvalidFieldsInBody(t *testing.T) {
	invalid := &model.InvalidClaimError{Fields: []model.FieldError{{Field: "claimant_id", Message: "is required"}}}
	router := newRouter(&fakeScorer{err: invalid}, &fakeReader{}, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/claims/score", strings.NewReader(claimBody)))

	var body rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "claimant_id", body.Fields[0].Field)
}

func TestGetAssessmentEndpoint(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		readErr    error
		name       string
		path       string
		wantStatus int
	}{
		{name: "found", path: "/v1/assessments/" + id.String(), wantStatus: http.StatusOK},
		{name: "bad id", path: "/v1/assessments/nope", wantStatus: http.StatusBadRequest},
		{name: "missing", path: "/v1/assessments/" + id.String(), readErr: fmt.Errorf("%w: %s", model.ErrAssessmentNotFound, id), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeScorer{}, &fakeReader{err: tt.readErr}, nil, nil)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_Auth(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "rest-test", Issuer: "claimrisk", Expiration: time.Minute})
	require.NoError(t, err)
	auditor, err := jwtSvc.GenerateToken("aud", []string{auth.RoleAuditor})
	require.NoError(t, err)

	router := newRouter(&fakeScorer{}, &fakeReader{}, jwtSvc, nil)

	do := func(method, path, token string, body io.Reader) int {
		req := httptest.NewRequest(method, path, body)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/v1/claims/score", "", strings.NewReader(claimBody)))
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, "/v1/claims/score", auditor, strings.NewReader(claimBody)))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/v1/assessments/"+uuid.NewString(), auditor, nil))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/healthz", "", nil))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/metrics", "", nil))
}

func TestReadyz(t *testing.T) {
	t.Run("all ok", func(t *testing.T) {
		router := newRouter(&fakeScorer{}, &fakeReader{}, nil, map[string]rest.ReadinessCheck{
			"database": func(context.Context) error { return nil },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("database down", func(t *testing.T) {
		router := newRouter(&fakeScorer{}, &fakeReader{}, nil, map[string]rest.ReadinessCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["database"])
	})
}
