package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/port"
	pgpkg "github.com/bibbank/claimrisk/pkg/postgres"
)

// ReferenceRepository implements port.ReferenceData and port.ProviderNetwork
// over the claims, provider_blacklist, claimants and network_providers tables.
type ReferenceRepository struct {
	db       pgpkg.Querier
	fallback port.ProviderNetwork
}

// NewReferenceRepository creates a ReferenceRepository. Providers missing
// from network_providers are resolved by fallback.
func NewReferenceRepository(db pgpkg.Querier, fallback port.ProviderNetwork) *ReferenceRepository {
	return &ReferenceRepository{db: db, fallback: fallback}
}

// LookupBlacklist reports whether provider is blacklisted, case-insensitively.
func (r *ReferenceRepository) LookupBlacklist(ctx context.Context, provider string) (string, bool, error) {
	var reason string
	err := r.db.QueryRow(ctx,
		`SELECT reason FROM provider_blacklist WHERE lower(provider) = lower($1)`,
		provider,
	).Scan(&reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query blacklist: %w", err)
	}
	return reason, true, nil
}

// LookupClaimHistory summarises the claimant's claims in [since, until).
func (r *ReferenceRepository) LookupClaimHistory(ctx context.Context, claimantID string, since, until time.Time) (port.ClaimHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT amount, claimed_at
		FROM claims
		WHERE claimant_id = $1 AND claimed_at >= $2 AND claimed_at < $3
		ORDER BY claimed_at
	`, claimantID, since, until)
	if err != nil {
		return port.ClaimHistory{}, fmt.Errorf("failed to query claim history: %w", err)
	}
	defer rows.Close()

	var (
		h     port.ClaimHistory
		total decimal.Decimal
	)
	for rows.Next() {
		var (
			amount    decimal.Decimal
			claimedAt time.Time
		)
		if err := rows.Scan(&amount, &claimedAt); err != nil {
			return port.ClaimHistory{}, fmt.Errorf("failed to scan claim history: %w", err)
		}
		total = total.Add(amount)
		h.Amounts = append(h.Amounts, amount.InexactFloat64())
		h.LastClaimAt = claimedAt
		h.Count++
	}
	if err := rows.Err(); err != nil {
		return port.ClaimHistory{}, fmt.Errorf("failed to iterate claim history: %w", err)
	}

	if h.Count > 0 {
		h.AverageAmount = total.Div(decimal.NewFromInt(int64(h.Count))).InexactFloat64()
	}
	return h, nil
}

// LookupPriorNotes returns the notes of the claimant's most recent claims,
// newest first. Claims without notes are skipped.
func (r *ReferenceRepository) LookupPriorNotes(ctx context.Context, claimantID string, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT notes
		FROM claims
		WHERE claimant_id = $1 AND notes <> ''
		ORDER BY claimed_at DESC
		LIMIT $2
	`, claimantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior notes: %w", err)
	}
	defer rows.Close()

	notes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan prior notes: %w", err)
	}
	return notes, nil
}

// LookupResidence returns the claimant's registered address, or "" if unknown.
func (r *ReferenceRepository) LookupResidence(ctx context.Context, claimantID string) (string, error) {
	var residence string
	err := r.db.QueryRow(ctx,
		`SELECT residence FROM claimants WHERE claimant_id = $1`,
		claimantID,
	).Scan(&residence)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query residence: %w", err)
	}
	return residence, nil
}

// IsInNetwork consults network_providers and falls back for unlisted providers.
func (r *ReferenceRepository) IsInNetwork(ctx context.Context, provider string) (bool, error) {
	var inNetwork bool
	err := r.db.QueryRow(ctx,
		`SELECT in_network FROM network_providers WHERE lower(provider) = lower($1)`,
		provider,
	).Scan(&inNetwork)
	if errors.Is(err, pgx.ErrNoRows) {
		if r.fallback == nil {
			return true, nil
		}
		return r.fallback.IsInNetwork(ctx, provider)
	}
	if err != nil {
		return false, fmt.Errorf("failed to query provider network: %w", err)
	}
	return inNetwork, nil
}

// AverageClaimAmount returns the mean amount over all recorded claims. ok
// is false when the table is empty.
func (r *ReferenceRepository) AverageClaimAmount(ctx context.Context) (float64, bool, error) {
	var avg decimal.NullDecimal
	if err := r.db.QueryRow(ctx, `SELECT avg(amount) FROM claims`).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("failed to query average claim amount: %w", err)
	}
	if !avg.Valid || !avg.Decimal.IsPositive() {
		return 0, false, nil
	}
	return avg.Decimal.InexactFloat64(), true, nil
}
