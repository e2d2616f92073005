package trade

import "context"

// Repository describes proposal persistence needs from use cases. Proposals
// are never deleted; terminal states are retained for history.
type Repository interface {
	GetByID(ctx context.Context, proposalID string) (Proposal, bool, error)
	ListByTeam(ctx context.Context, teamID string) ([]Proposal, error)
	// FindActiveByTerms returns an active (pending, approved, or settling)
	// proposal matching the given terms fingerprint, if any.
	FindActiveByTerms(ctx context.Context, termsKey string) (Proposal, bool, error)
	Create(ctx context.Context, p Proposal) error
	// UpdateStateCAS transitions a proposal from one state to another only if
	// the stored version still matches expectedVersion. It reports false when
	// another writer won the race; callers must not treat that as an error of
	// the store.
	UpdateStateCAS(ctx context.Context, proposalID string, from, to State, expectedVersion int64, failureReason string) (bool, error)
}

// SettlementRepository applies a precomputed settlement atomically: every
// ownership transfer, both team updates, the renewal obligations, and the
// proposal transition to completed happen in one transaction keyed by the
// proposal id and its settling version.
type SettlementRepository interface {
	Apply(ctx context.Context, s Settlement) error
}
