package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/claimrisk/internal/application/dto"
	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/domain/service"
)

// DefaultProbabilityTimeout bounds a single fraud probability request.
const DefaultProbabilityTimeout = 5 * time.Second

// ErrNoDecision is returned when neither alarms nor a probability could be
// obtained.
var ErrNoDecision = errors.New("no decision possible")

// ScoreClaim is the use case for scoring a claim: run the alarm checks,
// extract features, obtain the fraud probability and apply the decision
// policy. Recording and publishing are optional.
type ScoreClaim struct {
	orchestrator *service.Orchestrator
	extractor    *service.FeatureExtractor
	policy       *service.DecisionPolicy
	probability  port.ProbabilitySource
	repo         port.AssessmentRepository
	publisher    port.EventPublisher
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
	timeout      time.Duration
}

// ScoreClaimOption configures optional collaborators of ScoreClaim.
type ScoreClaimOption func(*ScoreClaim)

// WithRecorder persists every scored claim.
func WithRecorder(repo port.AssessmentRepository) ScoreClaimOption {
	return func(uc *ScoreClaim) { uc.repo = repo }
}

// WithPublisher publishes the domain events of every scored claim.
func WithPublisher(publisher port.EventPublisher) ScoreClaimOption {
	return func(uc *ScoreClaim) { uc.publisher = publisher }
}

// WithMetrics records scoring metrics.
func WithMetrics(m *Metrics) ScoreClaimOption {
	return func(uc *ScoreClaim) { uc.metrics = m }
}

// WithProbabilityTimeout overrides DefaultProbabilityTimeout.
func WithProbabilityTimeout(d time.Duration) ScoreClaimOption {
	return func(uc *ScoreClaim) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

// NewScoreClaim creates a new ScoreClaim use case.
func NewScoreClaim(
	orchestrator *service.Orchestrator,
	extractor *service.FeatureExtractor,
	policy *service.DecisionPolicy,
	probability port.ProbabilitySource,
	logger *slog.Logger,
	opts ...ScoreClaimOption,
) *ScoreClaim {
	uc := &ScoreClaim{
		orchestrator: orchestrator,
		extractor:    extractor,
		policy:       policy,
		probability:  probability,
		logger:       logger,
		tracer:       otel.Tracer("github.com/bibbank/claimrisk/internal/application/usecase"),
		timeout:      DefaultProbabilityTimeout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute scores one claim. It fails with model.ErrInvalidClaim before any
// check runs, and with model.ErrProbabilitySource when the classifier fails
// and the caller did not allow an alarms-only decision.
func (uc *ScoreClaim) Execute(ctx context.Context, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "ScoreClaim")
	defer span.End()

	// 1. Validate the claim.
	claim, err := model.NewClaim(req.ClaimParams())
	if err != nil {
		span.SetStatus(codes.Error, "invalid claim")
		return dto.AssessmentResponse{}, fmt.Errorf("failed to create claim: %w", err)
	}
	span.SetAttributes(attribute.String("claimant_id", claim.ClaimantID()))

	// 2. Run every alarm check.
	report := uc.orchestrator.Evaluate(ctx, claim)
	uc.metrics.recordReport(ctx, report)
	if err := ctx.Err(); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("scoring cancelled: %w", err)
	}

	// 3. Extract features.
	features := uc.extractor.Extract(claim, report.Alarms)

	// 4. Obtain the fraud probability and decide.
	probability, perr := uc.predict(ctx, features)

	var decision model.Decision
	switch {
	case perr != nil && (!req.AllowAlarmsOnly || report.AllFailed()):
		span.RecordError(perr)
		span.SetStatus(codes.Error, "probability source failure")
		if report.AllFailed() {
			return dto.AssessmentResponse{}, fmt.Errorf("%w: %w", ErrNoDecision, perr)
		}
		return dto.AssessmentResponse{}, perr
	case perr != nil:
		uc.logger.Warn("probability source failed, deciding from alarms only",
			"claimant_id", claim.ClaimantID(),
			"error", perr,
		)
		decision = uc.policy.DecideAlarmsOnly(report.Alarms)
	case report.AllFailed():
		uc.logger.Warn("no alarm check succeeded, deciding from probability only",
			"claimant_id", claim.ClaimantID(),
		)
		decision = uc.policy.DecideProbabilityOnly(probability)
	default:
		decision = uc.policy.Decide(probability, report.Alarms)
	}

	// 5. Build the assessment aggregate.
	assessment := model.NewClaimAssessment(claim, decision, features, report.Failures)
	uc.metrics.recordDecision(ctx, decision)
	span.SetAttributes(
		attribute.String("decision", decision.Outcome.String()),
		attribute.String("mode", decision.Mode.String()),
		attribute.Int("alarms", len(decision.Alarms)),
		attribute.Bool("degraded", assessment.Degraded()),
	)

	uc.logger.Info("claim scored",
		"assessment_id", assessment.ID(),
		"claimant_id", claim.ClaimantID(),
		"decision", decision.Outcome.String(),
		"mode", decision.Mode.String(),
		"total_risk", decision.TotalRisk.String(),
		"alarms", len(decision.Alarms),
		"degraded_checks", len(report.Failures),
	)

	// 6. Record and publish. Failures here never change the decision.
	if !req.DryRun {
		uc.record(ctx, assessment)
	}

	return dto.FromModel(assessment), nil
}

func (uc *ScoreClaim) predict(ctx context.Context, features model.FeatureVector) (float64, error) {
	pctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	p, err := uc.probability.Predict(pctx, features)
	if err == nil && (math.IsNaN(p) || p < 0 || p > 1) {
		err = fmt.Errorf("probability %v outside [0,1]", p)
	}
	uc.metrics.recordProbability(ctx, float64(time.Since(start).Microseconds())/1000, err)

	if err != nil {
		return 0, &model.ProbabilitySourceError{Err: err}
	}
	return p, nil
}

func (uc *ScoreClaim) record(ctx context.Context, assessment *model.ClaimAssessment) {
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, assessment); err != nil {
			uc.logger.Error("failed to save assessment",
				"assessment_id", assessment.ID(),
				"error", err,
			)
		}
	}

	events := assessment.DomainEvents()
	if uc.publisher != nil && len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			uc.logger.Error("failed to publish events",
				"assessment_id", assessment.ID(),
				"error", err,
			)
		}
	}
}
