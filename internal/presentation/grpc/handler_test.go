package grpc_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/application/usecase"
	"github.com/bibbank/claimrisk/internal/domain/model"
	grpcpres "github.com/bibbank/claimrisk/internal/presentation/grpc"
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
	err  error
	resp dto.AssessmentResponse
}

func (f *fakeReader) Execute(_ context.Context, req dto.GetAssessmentRequest) (dto.AssessmentResponse, error) {
	if f.err != nil {
		return dto.AssessmentResponse{}, f.err
	}
	resp := f.resp
	resp.ID = req.AssessmentID
	return resp, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScoreClaim(t *testing.T) {
	scorer := &fakeScorer{resp: dto.AssessmentResponse{Decision: "approve", TotalRisk: "0.05"}}
	h := grpcpres.NewClaimRiskHandler(scorer, &fakeReader{}, discardLogger())

	reply, err := h.ScoreClaim(context.Background(), &grpcpres.ScoreClaimRequest{
		Claim: dto.ScoreClaimRequest{ClaimantID: "claimant-0001", Provider: "Acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "approve", reply.Assessment.Decision)
	assert.Equal(t, "claimant-0001", scorer.got.ClaimantID)
}

func TestScoreClaim_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want codes.Code
	}{
		{name: "invalid claim", err: &model.InvalidClaimError{Fields: []model.FieldError{{Field: "amount", Message: "must be positive"}}}, want: codes.InvalidArgument},
		{name: "probability source", err: fmt.Errorf("%w: %w", usecase.ErrNoDecision, &model.ProbabilitySourceError{Err: context.DeadlineExceeded}), want: codes.Unavailable},
		{name: "cancelled", err: fmt.Errorf("scoring cancelled: %w", context.Canceled), want: codes.Canceled},
		{name: "unexpected", err: fmt.Errorf("boom"), want: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := grpcpres.NewClaimRiskHandler(&fakeScorer{err: tt.err}, &fakeReader{}, discardLogger())

			_, err := h.ScoreClaim(context.Background(), &grpcpres.ScoreClaimRequest{})
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestScoreClaim_NilRequest(t *testing.T) {
	h := grpcpres.NewClaimRiskHandler(&fakeScorer{}, &fakeReader{}, discardLogger())

	_, err := h.ScoreClaim(context.Background(), nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetAssessment(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		h := grpcpres.NewClaimRiskHandler(&fakeScorer{}, &fakeReader{resp: dto.AssessmentResponse{Decision: "review"}}, discardLogger())

		reply, err := h.GetAssessment(context.Background(), &grpcpres.GetAssessmentRequest{ID: id.String()})
		require.NoError(t, err)
		assert.Equal(t, id, reply.Assessment.ID)
		assert.Equal(t, "review", reply.Assessment.Decision)
	})

	t.Run("malformed id", func(t *testing.T) {
		h := grpcpres.NewClaimRiskHandler(&fakeScorer{}, &fakeReader{}, discardLogger())

		_, err := h.GetAssessment(context.Background(), &grpcpres.GetAssessmentRequest{ID: "not-a-uuid"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("not found", func(t *testing.T) {
		reader := &fakeReader{err: fmt.Errorf("%w: %s", model.ErrAssessmentNotFound, id)}
		h := grpcpres.NewClaimRiskHandler(&fakeScorer{}, reader, discardLogger())

		_, err := h.GetAssessment(context.Background(), &grpcpres.GetAssessmentRequest{ID: id.String()})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}
