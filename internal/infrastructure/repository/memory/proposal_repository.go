package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/trade"
)

type ProposalRepository struct {
	mu    sync.RWMutex
	items map[string]trade.Proposal
}

func NewProposalRepository() *ProposalRepository {
	return &ProposalRepository{items: make(map[string]trade.Proposal)}
}

func (r *ProposalRepository) GetByID(_ context.Context, proposalID string) (trade.Proposal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[proposalID]
	if !ok {
		return trade.Proposal{}, false, nil
	}
	return cloneProposal(p), true, nil
}

func (r *ProposalRepository) ListByTeam(_ context.Context, teamID string) ([]trade.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]trade.Proposal, 0)
	for _, p := range r.items {
		if p.RequestingTeamID == teamID || p.OpposingTeamID == teamID {
			out = append(out, cloneProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (r *ProposalRepository) FindActiveByTerms(_ context.Context, termsKey string) (trade.Proposal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.State.Active() && p.TermsKey() == termsKey {
			return cloneProposal(p), true, nil
		}
	}
	return trade.Proposal{}, false, nil
}

func (r *ProposalRepository) Create(_ context.Context, p trade.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = cloneProposal(p)
	return nil
}

func (r *ProposalRepository) UpdateStateCAS(_ context.Context, proposalID string, from, to trade.State, expectedVersion int64, failureReason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[proposalID]
	if !ok {
		return false, nil
	}
	if p.State != from || p.Version != expectedVersion {
		return false, nil
	}
	if !trade.CanTransition(from, to) {
		return false, nil
	}

	p.State = to
	p.Version++
	p.FailureReason = failureReason
	if to == trade.StateCompleted {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}
	r.items[proposalID] = p

	return true, nil
}

func cloneProposal(p trade.Proposal) trade.Proposal {
	copied := p
	copied.OfferedPlayerIDs = append([]string(nil), p.OfferedPlayerIDs...)
	copied.RequestedPlayerIDs = append([]string(nil), p.RequestedPlayerIDs...)
	if p.CompletedAt != nil {
		completedAt := *p.CompletedAt
		copied.CompletedAt = &completedAt
	}
	return copied
}
