package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/application/usecase"
	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

func TestGetAssessment_Execute(t *testing.T) {
	t.Run("successfully retrieves an assessment", func(t *testing.T) {
		assessmentID := uuid.New()
		now := time.Now().UTC()

		claim, err := model.NewClaim(validScoreRequest().ClaimParams())
		require.NoError(t, err)

		assessment := model.ReconstructAssessment(
			assessmentID, claim,
			model.Decision{
				Outcome:        valueobject.OutcomeApprove,
				Mode:           valueobject.ModeFull,
				Probability:    0.1,
				HasProbability: true,
				TotalRisk:      decimal.RequireFromString("0.1"),
			},
			model.FeatureVector{AmountNormalized: 0.4},
			nil, now,
		)

		repo := &mockAssessmentRepository{
			findByIDFunc: func(_ context.Context, id uuid.UUID) (*model.ClaimAssessment, error) {
				assert.Equal(t, assessmentID, id)
				return assessment, nil
			},
		}

		uc := usecase.NewGetAssessment(repo)

		resp, err := uc.Execute(context.Background(), dto.GetAssessmentRequest{AssessmentID: assessmentID})

		require.NoError(t, err)
		assert.Equal(t, assessmentID, resp.ID)
		assert.Equal(t, "C-42", resp.ClaimantID)
		assert.Equal(t, "APPROVE", resp.Decision)
		assert.Equal(t, 0.4, resp.Features["amount_normalized"])
	})

	t.Run("fails when the repository errors", func(t *testing.T) {
		repo := &mockAssessmentRepository{
			findByIDFunc: func(_ context.Context, _ uuid.UUID) (*model.ClaimAssessment, error) {
				return nil, fmt.Errorf("connection reset")
			},
		}

		_, err := usecase.NewGetAssessment(repo).Execute(context.Background(), dto.GetAssessmentRequest{AssessmentID: uuid.New()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find assessment")
	})

	t.Run("not found maps to the sentinel", func(t *testing.T) {
		repo := &mockAssessmentRepository{}

		_, err := usecase.NewGetAssessment(repo).Execute(context.Background(), dto.GetAssessmentRequest{AssessmentID: uuid.New()})

		assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
	})
}
