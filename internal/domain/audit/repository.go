package audit

import "context"

type Repository interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityKind, entityID string) ([]Event, error)
}
