package memory

import (
	"context"
	"sync"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
)

type AuditRepository struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *AuditRepository) ListByEntity(_ context.Context, entityKind, entityID string) ([]audit.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]audit.Event, 0)
	for _, event := range r.events {
		if event.EntityKind == entityKind && event.EntityID == entityID {
			out = append(out, event)
		}
	}

	return out, nil
}
