package port

import (
	"context"
	"time"
)

// ClaimHistory summarises a claimant's prior claims inside a time window.
type ClaimHistory struct {
	// LastClaimAt is zero when the claimant has no prior claim in the window.
	LastClaimAt   time.Time
	Amounts       []float64
	Count         int
	AverageAmount float64
}

// ReferenceData is the read-only lookup side of the claims store consulted by
// the checks. Every method may fail and must honour ctx.
type ReferenceData interface {
	// LookupBlacklist reports whether provider is blacklisted and why.
	LookupBlacklist(ctx context.Context, provider string) (reason string, found bool, err error)

	// LookupClaimHistory returns the claimant's claims with timestamps in
	// [since, until).
	LookupClaimHistory(ctx context.Context, claimantID string, since, until time.Time) (ClaimHistory, error)

	// LookupPriorNotes returns the notes of the claimant's most recent claims,
	// newest first.
	LookupPriorNotes(ctx context.Context, claimantID string, limit int) ([]string, error)

	// LookupResidence returns the claimant's registered address. An empty
	// string means unknown.
	LookupResidence(ctx context.Context, claimantID string) (string, error)
}

// ProviderNetwork answers whether a provider belongs to the approved network.
type ProviderNetwork interface {
	IsInNetwork(ctx context.Context, provider string) (bool, error)
}
