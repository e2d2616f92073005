package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
)

// SettlementRepository applies a settlement against the in-memory ledger.
// A single mutex serializes settlements, and a re-entry for an already
// completed proposal is a no-op, so retries cannot double-apply.
type SettlementRepository struct {
	mu          sync.Mutex
	proposals   *ProposalRepository
	teams       *TeamRepository
	players     *PlayerRepository
	obligations *ObligationRepository
}

func NewSettlementRepository(
	proposals *ProposalRepository,
	teams *TeamRepository,
	players *PlayerRepository,
	obligations *ObligationRepository,
) *SettlementRepository {
	return &SettlementRepository{
		proposals:   proposals,
		teams:       teams,
		players:     players,
		obligations: obligations,
	}
}

func (r *SettlementRepository) Apply(ctx context.Context, s trade.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposal, exists, err := r.proposals.GetByID(ctx, s.ProposalID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("settlement proposal %s not found", s.ProposalID)
	}
	if proposal.State == trade.StateCompleted {
		return nil
	}
	if proposal.State != trade.StateSettling || proposal.Version != s.ProposalVersion {
		return fmt.Errorf("settlement proposal %s not in settling state at version %d", s.ProposalID, s.ProposalVersion)
	}

	for _, transfer := range s.Transfers {
		p, exists, err := r.players.GetByID(ctx, transfer.PlayerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("settlement player %s not found", transfer.PlayerID)
		}
		p.OwnerTeamID = transfer.ToTeamID
		p.ContractExpiry = nil
		if err := r.players.Save(ctx, p); err != nil {
			return err
		}
	}

	for _, update := range s.Teams {
		t, exists, err := r.teams.GetByID(ctx, update.TeamID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("settlement team %s not found", update.TeamID)
		}
		t.Credits = update.Credits
		t.RosterValue = update.RosterValue
		t.PlayerCount = update.PlayerCount
		if err := r.teams.Save(ctx, t); err != nil {
			return err
		}
	}

	for _, spec := range s.Obligations {
		obligation := renewal.Obligation{
			ID:        spec.ObligationID,
			TeamID:    spec.TeamID,
			PlayerIDs: append([]string(nil), spec.PlayerIDs...),
			State:     renewal.StatePending,
			CreatedAt: s.CompletedAt,
		}
		if err := r.obligations.Save(ctx, obligation); err != nil {
			return err
		}
	}

	completed, err := r.proposals.UpdateStateCAS(ctx, s.ProposalID, trade.StateSettling, trade.StateCompleted, s.ProposalVersion, "")
	if err != nil {
		return err
	}
	if !completed {
		return fmt.Errorf("settlement proposal %s completion lost its version race", s.ProposalID)
	}
	return nil
}
