// Package stream scores claims arriving on the Kafka intake topic.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/pkg/kafka"
)

// ClaimScorer runs the scoring pipeline; satisfied by *usecase.ScoreClaim.
type ClaimScorer interface {
	Execute(ctx context.Context, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error)
}

// IntakeHandler turns intake messages into ScoreClaim calls.
type IntakeHandler struct {
	scorer ClaimScorer
	logger *slog.Logger
}

// NewIntakeHandler creates an IntakeHandler.
func NewIntakeHandler(scorer ClaimScorer, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{scorer: scorer, logger: logger}
}

// Handle satisfies kafka.Handler. Undecodable or invalid claims return nil
// so the offset is committed; anything else is returned for redelivery.
func (h *IntakeHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var req dto.ScoreClaimRequest
	dec := json.NewDecoder(bytes.NewReader(msg.Value))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("dropping undecodable intake message",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	// Intake claims are always recorded.
	req.DryRun = false

	resp, err := h.scorer.Execute(ctx, req)
	switch {
	case errors.Is(err, model.ErrInvalidClaim):
		h.logger.Warn("dropping invalid intake claim",
			"key", string(msg.Key),
			"claimant_id", req.ClaimantID,
			"error", err,
		)
		return nil
	case err != nil:
		return fmt.Errorf("scoring intake claim %q: %w", msg.Key, err)
	}

	h.logger.Info("intake claim scored",
		"assessment_id", resp.ID,
		"claimant_id", resp.ClaimantID,
		"decision", resp.Decision,
	)
	return nil
}
