package memory

import (
	"context"
	"sync"

	"github.com/fantamercato/trade-engine/internal/domain/stats"
)

type StatsRepository struct {
	mu    sync.RWMutex
	items map[string]stats.SeasonStats
}

func NewStatsRepository(rows []stats.SeasonStats) *StatsRepository {
	items := make(map[string]stats.SeasonStats, len(rows))
	for _, row := range rows {
		items[row.PlayerID] = row
	}
	return &StatsRepository{items: items}
}

func (r *StatsRepository) GetByPlayer(_ context.Context, playerID string) (stats.SeasonStats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.items[playerID]
	return row, ok, nil
}

func (r *StatsRepository) GetByPlayers(_ context.Context, playerIDs []string) (map[string]stats.SeasonStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]stats.SeasonStats, len(playerIDs))
	for _, id := range playerIDs {
		if row, ok := r.items[id]; ok {
			out[id] = row
		}
	}

	return out, nil
}
