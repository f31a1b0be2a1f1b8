package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/domain/model"
)

// ClaimScorer runs the scoring pipeline; satisfied by *usecase.ScoreClaim.
type ClaimScorer interface {
	Execute(ctx context.Context, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error)
}

// AssessmentReader loads recorded assessments; satisfied by *usecase.GetAssessment.
type AssessmentReader interface {
	Execute(ctx context.Context, req dto.GetAssessmentRequest) (dto.AssessmentResponse, error)
}

var _ ClaimRiskServiceServer = (*ClaimRiskHandler)(nil)

// ClaimRiskHandler implements ClaimRiskServiceServer.
type ClaimRiskHandler struct {
	UnimplementedClaimRiskServiceServer
	scoreClaim    ClaimScorer
	getAssessment AssessmentReader
	logger        *slog.Logger
}

// NewClaimRiskHandler creates a new gRPC handler.
func NewClaimRiskHandler(scoreClaim ClaimScorer, getAssessment AssessmentReader, logger *slog.Logger) *ClaimRiskHandler {
	return &ClaimRiskHandler{
		scoreClaim:    scoreClaim,
		getAssessment: getAssessment,
		logger:        logger,
	}
}

// ScoreClaim scores one claim.
func (h *ClaimRiskHandler) ScoreClaim(ctx context.Context, req *ScoreClaimRequest) (*AssessmentReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.scoreClaim.Execute(ctx, req.Claim)
	if err != nil {
		return nil, h.toStatus(err, "score claim", slog.String("claimant_id", req.Claim.ClaimantID))
	}

	return &AssessmentReply{Assessment: result}, nil
}

// GetAssessment returns a recorded assessment by ID.
func (h *ClaimRiskHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*AssessmentReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	result, err := h.getAssessment.Execute(ctx, dto.GetAssessmentRequest{AssessmentID: id})
	if err != nil {
		return nil, h.toStatus(err, "get assessment", slog.String("assessment_id", id.String()))
	}

	return &AssessmentReply{Assessment: result}, nil
}

// toStatus maps pipeline errors onto gRPC codes. Internal failures are
// logged and hidden from the caller.
func (h *ClaimRiskHandler) toStatus(err error, op string, attr slog.Attr) error {
	switch {
	case errors.Is(err, model.ErrInvalidClaim):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrAssessmentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrProbabilitySource):
		h.logger.Warn(op+" failed", attr, slog.String("error", err.Error()))
		return status.Error(codes.Unavailable, "fraud probability source unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		h.logger.Error(op+" failed", attr, slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}
