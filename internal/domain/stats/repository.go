package stats

import "context"

// Repository describes season statistics reads from use cases. Stats are
// produced out of band by the league's data import tooling.
type Repository interface {
	GetByPlayer(ctx context.Context, playerID string) (SeasonStats, bool, error)
	GetByPlayers(ctx context.Context, playerIDs []string) (map[string]SeasonStats, error)
}
