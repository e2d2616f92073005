package renewal

import "context"

// Repository describes renewal obligation persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, obligationID string) (Obligation, bool, error)
	// FindPendingByTeamAndPlayer returns the pending obligation covering the
	// given player for the given team, if any.
	FindPendingByTeamAndPlayer(ctx context.Context, teamID, playerID string) (Obligation, bool, error)
	ListByTeam(ctx context.Context, teamID string) ([]Obligation, error)
	Save(ctx context.Context, o Obligation) error
}
