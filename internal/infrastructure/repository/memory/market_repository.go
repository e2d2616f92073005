package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/market"
)

type MarketRepository struct {
	mu    sync.RWMutex
	items map[market.Kind]market.Window
}

// NewMarketRepository seeds one closed window per kind.
func NewMarketRepository() *MarketRepository {
	items := make(map[market.Kind]market.Window, len(market.AllKinds))
	for kind := range market.AllKinds {
		items[kind] = market.Window{Kind: kind, Version: 1, UpdatedAt: time.Now().UTC()}
	}
	return &MarketRepository{items: items}
}

func (r *MarketRepository) Get(_ context.Context, kind market.Kind) (market.Window, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.items[kind]
	if !ok {
		return market.Window{}, false, nil
	}
	return cloneWindow(w), true, nil
}

func (r *MarketRepository) SaveCAS(_ context.Context, w market.Window, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[w.Kind]
	if !ok || current.Version != expectedVersion {
		return false, nil
	}

	w.Version = expectedVersion + 1
	r.items[w.Kind] = cloneWindow(w)

	return true, nil
}

func cloneWindow(w market.Window) market.Window {
	copied := w
	copied.ScheduledOpenAt = cloneTime(w.ScheduledOpenAt)
	copied.ScheduledCloseAt = cloneTime(w.ScheduledCloseAt)
	copied.LastNotifiedAt = cloneTime(w.LastNotifiedAt)
	return copied
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
