package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fantamercato/trade-engine/internal/domain/renewal"
)

type ObligationRepository struct {
	mu    sync.RWMutex
	items map[string]renewal.Obligation
}

func NewObligationRepository() *ObligationRepository {
	return &ObligationRepository{items: make(map[string]renewal.Obligation)}
}

func (r *ObligationRepository) GetByID(_ context.Context, obligationID string) (renewal.Obligation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[obligationID]
	if !ok {
		return renewal.Obligation{}, false, nil
	}
	return cloneObligation(o), true, nil
}

func (r *ObligationRepository) FindPendingByTeamAndPlayer(_ context.Context, teamID, playerID string) (renewal.Obligation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.items {
		if o.State != renewal.StatePending || o.TeamID != teamID {
			continue
		}
		if o.Covers(playerID) && !o.Renewed(playerID) {
			return cloneObligation(o), true, nil
		}
	}
	return renewal.Obligation{}, false, nil
}

func (r *ObligationRepository) ListByTeam(_ context.Context, teamID string) ([]renewal.Obligation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]renewal.Obligation, 0)
	for _, o := range r.items {
		if o.TeamID == teamID {
			out = append(out, cloneObligation(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (r *ObligationRepository) Save(_ context.Context, o renewal.Obligation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[o.ID] = cloneObligation(o)
	return nil
}

func cloneObligation(o renewal.Obligation) renewal.Obligation {
	copied := o
	copied.PlayerIDs = append([]string(nil), o.PlayerIDs...)
	copied.RenewedPlayerIDs = append([]string(nil), o.RenewedPlayerIDs...)
	return copied
}
