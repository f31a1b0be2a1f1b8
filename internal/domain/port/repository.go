package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/pkg/events"
)

// AssessmentRepository defines the persistence port for scored claims.
type AssessmentRepository interface {
	// Save persists a new claim assessment.
	Save(ctx context.Context, assessment *model.ClaimAssessment) error

	// FindByID retrieves an assessment by its unique identifier. It returns
	// model.ErrAssessmentNotFound when no row exists.
	FindByID(ctx context.Context, id uuid.UUID) (*model.ClaimAssessment, error)

	// FindByClaimantID retrieves the most recent assessments for a claimant.
	FindByClaimantID(ctx context.Context, claimantID string, limit, offset int) ([]*model.ClaimAssessment, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// ProbabilitySource is the external classifier that turns a feature vector
// into a fraud probability in [0,1].
type ProbabilitySource interface {
	Predict(ctx context.Context, features model.FeatureVector) (float64, error)
}
