package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/domain/model"
)

const serviceName = "claimrisk"

// maxBodyBytes bounds claim payloads.
const maxBodyBytes = 1 << 20

// ClaimScorer runs the scoring pipeline; satisfied by *usecase.ScoreClaim.
type ClaimScorer interface {
	Execute(ctx context.Context, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error)
}

// AssessmentReader loads recorded assessments; satisfied by *usecase.GetAssessment.
type AssessmentReader interface {
	Execute(ctx context.Context, req dto.GetAssessmentRequest) (dto.AssessmentResponse, error)
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

// ClaimHandler serves the scoring API.
type ClaimHandler struct {
	scoreClaim    ClaimScorer
	getAssessment AssessmentReader
	logger        *slog.Logger
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(scoreClaim ClaimScorer, getAssessment AssessmentReader, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{
		scoreClaim:    scoreClaim,
		getAssessment: getAssessment,
		logger:        logger,
	}
}

// ScoreClaim handles POST /v1/claims/score.
func (h *ClaimHandler) ScoreClaim(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreClaimRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	resp, err := h.scoreClaim.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "score claim", slog.String("claimant_id", req.ClaimantID))
		return
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("encoding score claim response", slog.String("claimant_id", req.ClaimantID), slog.String("error", err.Error()))
	}
}

// GetAssessment handles GET /v1/assessments/{id}.
func (h *ClaimHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid assessment id"})
		return
	}

	resp, err := h.getAssessment.Execute(r.Context(), dto.GetAssessmentRequest{AssessmentID: id})
	if err != nil {
		h.writeError(w, err, "get assessment", slog.String("assessment_id", id.String()))
		return
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("encoding get assessment response", slog.String("assessment_id", id.String()), slog.String("error", err.Error()))
	}
}

func (h *ClaimHandler) writeError(w http.ResponseWriter, err error, op string, attr slog.Attr) {
	var invalid *model.InvalidClaimError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: model.ErrInvalidClaim.Error(), Fields: invalid.Fields})
	case errors.Is(err, model.ErrInvalidClaim):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrAssessmentNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrProbabilitySource):
		h.logger.Warn(op+" failed", attr, slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "fraud probability source unavailable"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "scoring timed out"})
	default:
		h.logger.Error(op+" failed", attr, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 instead of a truncated 2xx.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return fmt.Errorf("encoding response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err := w.Write(buf.Bytes())
	return err
}
