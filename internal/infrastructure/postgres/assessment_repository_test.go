//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/service"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
	"github.com/bibbank/claimrisk/internal/infrastructure/postgres"
	"github.com/bibbank/claimrisk/pkg/testutil"
)

const migrationsDir = "../../../migrations"

func setup(t *testing.T) *testutil.PostgresContainer {
	t.Helper()
	pc := testutil.NewPostgresContainer(context.Background(), t)
	pc.Migrate(t, migrationsDir)
	return pc
}

func scoredAssessment(t *testing.T, claimedAt time.Time, notes string) *model.ClaimAssessment {
	t.Helper()

	claim, err := model.NewClaim(model.ClaimParams{
		Timestamp:       claimedAt,
		Amount:          decimal.RequireFromString("12500.50"),
		ClaimantID:      testutil.TestClaimantID,
		Provider:        "shady_clinic",
		Notes:           notes,
		Location:        "40.7128,-74.0060",
		ReportDelayDays: 9,
		IsNewBank:       true,
	})
	require.NoError(t, err)

	decision := model.Decision{
		TotalRisk: decimal.RequireFromString("1.05"),
		Outcome:   valueobject.OutcomeReject,
		Mode:      valueobject.ModeFull,
		Alarms: []model.Alarm{
			model.NewAlarm(valueobject.AlarmBlacklistHit, valueobject.SeverityHigh,
				"provider is blacklisted", model.Evidence{model.EvidenceReason: "Past overbilling fraud"}),
			model.NewAlarm(valueobject.AlarmHighAmount, valueobject.SeverityHigh,
				"amount above ceiling", model.Evidence{
					model.EvidenceAmount:   12500.5,
					model.EvidenceTriggers: []string{"above_ceiling"},
				}),
		},
		OverriddenBy:   []valueobject.AlarmType{valueobject.AlarmBlacklistHit, valueobject.AlarmHighAmount},
		Probability:    0.45,
		HasProbability: true,
		Overridden:     true,
	}
	features := model.FeatureVector{AmountNormalized: 2.5, DelayDays: 9, IsNewBank: 1, NumAlarms: 2, HighSeverityCount: 2}
	failures := []model.CheckFailure{{Type: valueobject.AlarmExternalMismatch, Reason: "weather lookup timed out"}}

	return model.NewClaimAssessment(claim, decision, features, failures)
}

func TestAssessmentRepository_SaveAndFind(t *testing.T) {
	pc := setup(t)
	ctx := context.Background()
	repo := postgres.NewAssessmentRepository(pc.Pool)

	assessment := scoredAssessment(t, testutil.DaysBefore(1), "rear-ended at a light")
	require.NoError(t, repo.Save(ctx, assessment))

	got, err := repo.FindByID(ctx, assessment.ID())
	require.NoError(t, err)

	assert.Equal(t, assessment.ID(), got.ID())
	assert.Equal(t, testutil.TestClaimantID, got.Claim().ClaimantID())
	assert.True(t, got.Claim().Amount().Equal(decimal.RequireFromString("12500.50")))
	assert.True(t, got.Claim().Timestamp().Equal(testutil.DaysBefore(1)))

	d := got.Decision()
	assert.Equal(t, valueobject.OutcomeReject, d.Outcome)
	assert.Equal(t, valueobject.ModeFull, d.Mode)
	assert.True(t, d.TotalRisk.Equal(decimal.RequireFromString("1.05")))
	assert.True(t, d.HasProbability)
	assert.InDelta(t, 0.45, d.Probability, 1e-12)
	assert.Equal(t, []valueobject.AlarmType{valueobject.AlarmBlacklistHit, valueobject.AlarmHighAmount}, d.OverriddenBy)
	require.Len(t, d.Alarms, 2)
	assert.Equal(t, valueobject.AlarmHighAmount, d.Alarms[1].Type)
	assert.Equal(t, []string{"above_ceiling"}, d.Alarms[1].Evidence.Strings(model.EvidenceTriggers))
	assert.Equal(t, 2.5, got.Features().AmountNormalized)
	require.Len(t, got.Failures(), 1)
	assert.Equal(t, valueobject.AlarmExternalMismatch, got.Failures()[0].Type)
	assert.True(t, got.Degraded())
	assert.Empty(t, got.DomainEvents(), "reconstructed aggregates carry no events")

	list, err := repo.FindByClaimantID(ctx, testutil.TestClaimantID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAssessmentRepository_KeepsFullTotalRiskPrecision(t *testing.T) {
	pc := setup(t)
	ctx := context.Background()
	repo := postgres.NewAssessmentRepository(pc.Pool)

	policy, err := service.NewDecisionPolicy(service.DefaultPolicyConfig())
	require.NoError(t, err)
	decision := policy.DecideProbabilityOnly(0.123456789)

	claim := scoredAssessment(t, testutil.DaysBefore(1), "hail dented the roof").Claim()
	assessment := model.NewClaimAssessment(claim, decision, model.FeatureVector{}, nil)
	require.NoError(t, repo.Save(ctx, assessment))

	got, err := repo.FindByID(ctx, assessment.ID())
	require.NoError(t, err)
	assert.Equal(t, "0.123456789", got.Decision().TotalRisk.String())
}

func TestAssessmentRepository_NotFound(t *testing.T) {
	pc := setup(t)
	repo := postgres.NewAssessmentRepository(pc.Pool)

	_, err := repo.FindByID(context.Background(), testutil.TestAssessmentID)
	testutil.AssertErrorKind(t, err, model.ErrAssessmentNotFound, testutil.TestAssessmentID.String())
}

func TestReferenceRepository(t *testing.T) {
	pc := setup(t)
	ctx := context.Background()
	assessments := postgres.NewAssessmentRepository(pc.Pool)
	refs := postgres.NewReferenceRepository(pc.Pool, service.NewMarkerNetwork([]string{"out-of-network"}))

	for i, notes := range []string{"first visit", "", "third visit"} {
		require.NoError(t, assessments.Save(ctx, scoredAssessment(t, testutil.DaysBefore(10-i), notes)))
	}

	_, err := pc.Pool.Exec(ctx, `
		INSERT INTO claimants (claimant_id, residence) VALUES ($1, 'Boston, MA');
	`, testutil.TestClaimantID)
	require.NoError(t, err)
	_, err = pc.Pool.Exec(ctx, `INSERT INTO network_providers (provider, in_network) VALUES ('Lakeside_Clinic', false)`)
	require.NoError(t, err)

	t.Run("blacklist is case-insensitive", func(t *testing.T) {
		reason, found, err := refs.LookupBlacklist(ctx, "SHADY_CLINIC")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Past overbilling fraud", reason)

		_, found, err = refs.LookupBlacklist(ctx, "riverside_clinic")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("claim history window", func(t *testing.T) {
		h, err := refs.LookupClaimHistory(ctx, testutil.TestClaimantID, testutil.DaysBefore(365), testutil.TestNow)
		require.NoError(t, err)
		assert.Equal(t, 3, h.Count)
		assert.InDelta(t, 12500.5, h.AverageAmount, 1e-9)
		assert.True(t, h.LastClaimAt.Equal(testutil.DaysBefore(8)))

		h, err = refs.LookupClaimHistory(ctx, testutil.TestClaimantID, testutil.DaysBefore(9), testutil.TestNow)
		require.NoError(t, err)
		assert.Equal(t, 2, h.Count)
	})

	t.Run("prior notes newest first without blanks", func(t *testing.T) {
		notes, err := refs.LookupPriorNotes(ctx, testutil.TestClaimantID, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"third visit", "first visit"}, notes)
	})

	t.Run("residence", func(t *testing.T) {
		residence, err := refs.LookupResidence(ctx, testutil.TestClaimantID)
		require.NoError(t, err)
		assert.Equal(t, "Boston, MA", residence)

		residence, err = refs.LookupResidence(ctx, testutil.TestClaimantID2)
		require.NoError(t, err)
		assert.Empty(t, residence)
	})

	t.Run("network directory with fallback", func(t *testing.T) {
		in, err := refs.IsInNetwork(ctx, "lakeside_clinic")
		require.NoError(t, err)
		assert.False(t, in)

		in, err = refs.IsInNetwork(ctx, "riverside_clinic")
		require.NoError(t, err)
		assert.True(t, in)

		in, err = refs.IsInNetwork(ctx, "out-of-network-lab")
		require.NoError(t, err)
		assert.False(t, in)
	})

	t.Run("average claim amount", func(t *testing.T) {
		avg, ok, err := refs.AverageClaimAmount(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.InDelta(t, 12500.5, avg, 1e-9)
	})
}
