package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
	pgpkg "github.com/bibbank/claimrisk/pkg/postgres"
)

const assessmentColumns = `
	id, claimant_id, provider, amount, report_delay_days, is_new_bank,
	location, notes, claimed_at,
	outcome, mode, probability, total_risk, overridden, overridden_by,
	alarms, features, failures, scored_at`

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Save persists a scored claim. The claim itself is appended to the claims
// table in the same transaction so later checks see it as history.
func (r *AssessmentRepository) Save(ctx context.Context, assessment *model.ClaimAssessment) error {
	claim := assessment.Claim()
	decision := assessment.Decision()

	alarms, err := json.Marshal(nonNilAlarms(decision.Alarms))
	if err != nil {
		return fmt.Errorf("failed to encode alarms: %w", err)
	}
	features, err := json.Marshal(assessment.Features())
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	failures, err := json.Marshal(nonNilFailures(assessment.Failures()))
	if err != nil {
		return fmt.Errorf("failed to encode failures: %w", err)
	}

	var probability *float64
	if decision.HasProbability {
		p := decision.Probability
		probability = &p
	}

	overriddenBy := make([]string, 0, len(decision.OverriddenBy))
	for _, t := range decision.OverriddenBy {
		overriddenBy = append(overriddenBy, t.String())
	}

	return pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO claim_assessments (`+assessmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`,
			assessment.ID(),
			claim.ClaimantID(),
			claim.Provider(),
			claim.Amount(),
			claim.ReportDelayDays(),
			claim.IsNewBank(),
			claim.Location(),
			claim.Notes(),
			claim.Timestamp(),
			decision.Outcome.String(),
			decision.Mode.String(),
			probability,
			decision.TotalRisk,
			decision.Overridden,
			overriddenBy,
			alarms,
			features,
			failures,
			assessment.ScoredAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO claims (
				assessment_id, claimant_id, provider, amount, report_delay_days,
				is_new_bank, location, notes, claimed_at, decision
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			assessment.ID(),
			claim.ClaimantID(),
			claim.Provider(),
			claim.Amount(),
			claim.ReportDelayDays(),
			claim.IsNewBank(),
			claim.Location(),
			claim.Notes(),
			claim.Timestamp(),
			decision.Outcome.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to record claim history: %w", err)
		}
		return nil
	})
}

// FindByID retrieves an assessment by its unique identifier.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ClaimAssessment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM claim_assessments WHERE id = $1`, id)

	assessment, err := scanAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrAssessmentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// FindByClaimantID retrieves the claimant's assessments, newest first.
func (r *AssessmentRepository) FindByClaimantID(ctx context.Context, claimantID string, limit, offset int) ([]*model.ClaimAssessment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM claim_assessments
		WHERE claimant_id = $1
		ORDER BY scored_at DESC
		LIMIT $2 OFFSET $3
	`, claimantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]*model.ClaimAssessment, 0)
	for rows.Next() {
		assessment, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, nil
}

func scanAssessment(row pgx.Row) (*model.ClaimAssessment, error) {
	var (
		id              uuid.UUID
		claimantID      string
		provider        string
		amount          decimal.Decimal
		reportDelayDays int
		isNewBank       bool
		location        string
		notes           string
		claimedAt       time.Time
		outcomeStr      string
		modeStr         string
		probability     *float64
		totalRisk       decimal.Decimal
		overridden      bool
		overriddenBy    []string
		alarmsJSON      []byte
		featuresJSON    []byte
		failuresJSON    []byte
		scoredAt        time.Time
	)

	err := row.Scan(
		&id, &claimantID, &provider, &amount, &reportDelayDays, &isNewBank,
		&location, &notes, &claimedAt,
		&outcomeStr, &modeStr, &probability, &totalRisk, &overridden, &overriddenBy,
		&alarmsJSON, &featuresJSON, &failuresJSON, &scoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	claim, err := model.NewClaim(model.ClaimParams{
		Timestamp:       claimedAt,
		Amount:          amount,
		ClaimantID:      claimantID,
		Provider:        provider,
		Notes:           notes,
		Location:        location,
		ReportDelayDays: reportDelayDays,
		IsNewBank:       isNewBank,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild claim %s: %w", id, err)
	}

	outcome, err := valueobject.DecisionOutcomeFromString(outcomeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outcome: %w", err)
	}
	mode, err := valueobject.ScoringModeFromString(modeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mode: %w", err)
	}

	decision := model.Decision{
		TotalRisk:  totalRisk,
		Outcome:    outcome,
		Mode:       mode,
		Overridden: overridden,
	}
	if probability != nil {
		decision.Probability = *probability
		decision.HasProbability = true
	}
	for _, name := range overriddenBy {
		t, err := valueobject.AlarmTypeFromString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse override: %w", err)
		}
		decision.OverriddenBy = append(decision.OverriddenBy, t)
	}
	if err := json.Unmarshal(alarmsJSON, &decision.Alarms); err != nil {
		return nil, fmt.Errorf("failed to decode alarms: %w", err)
	}

	var features model.FeatureVector
	if err := json.Unmarshal(featuresJSON, &features); err != nil {
		return nil, fmt.Errorf("failed to decode features: %w", err)
	}

	var failures []model.CheckFailure
	if err := json.Unmarshal(failuresJSON, &failures); err != nil {
		return nil, fmt.Errorf("failed to decode failures: %w", err)
	}

	return model.ReconstructAssessment(id, claim, decision, features, failures, scoredAt), nil
}

func nonNilAlarms(a []model.Alarm) []model.Alarm {
	if a == nil {
		return []model.Alarm{}
	}
	return a
}

func nonNilFailures(f []model.CheckFailure) []model.CheckFailure {
	if f == nil {
		return []model.CheckFailure{}
	}
	return f
}
