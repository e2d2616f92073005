package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	ListByOwner(ctx context.Context, teamID string) ([]Player, error)
	ListRostered(ctx context.Context) ([]Player, error)
	Save(ctx context.Context, p Player) error
}
