package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/trade"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

type seqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *captureNotifier) Notify(_ context.Context, audience Audience, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, string(audience)+": "+subject)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func openWindow(t *testing.T, repo *memory.MarketRepository, kind market.Kind) {
	t.Helper()

	window, exists, err := repo.Get(t.Context(), kind)
	if err != nil || !exists {
		t.Fatalf("get %s window: exists=%v err=%v", kind, exists, err)
	}
	window.IsOpen = true
	applied, err := repo.SaveCAS(t.Context(), window, window.Version)
	if err != nil || !applied {
		t.Fatalf("open %s window: applied=%v err=%v", kind, applied, err)
	}
}

func newProposalService(t *testing.T) (*ProposalService, *memory.MarketRepository) {
	t.Helper()

	marketRepo := memory.NewMarketRepository()
	return NewProposalService(
		memory.NewProposalRepository(),
		memory.NewTeamRepository(memory.SeedTeams()),
		memory.NewPlayerRepository(memory.SeedPlayers()),
		memory.NewObligationRepository(),
		marketRepo,
		&seqIDGenerator{prefix: "prop"},
		memory.NewAuditRepository(),
		logging.NewNop(),
	), marketRepo
}

func TestProposalService_Submit_MarketClosed(t *testing.T) {
	service, _ := newProposalService(t)

	_, err := service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	})
	if !errors.Is(err, ErrMarketClosed) {
		t.Fatalf("expected ErrMarketClosed, got %v", err)
	}
}

func TestProposalService_Submit_PlayersOnly(t *testing.T) {
	service, marketRepo := newProposalService(t)
	openWindow(t, marketRepo, market.KindTrade)

	submittedAt := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return submittedAt }

	proposal, err := service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if proposal.ID != "prop-001" {
		t.Fatalf("expected proposal id prop-001, got %s", proposal.ID)
	}
	if proposal.State != trade.StatePending {
		t.Fatalf("expected pending state, got %s", proposal.State)
	}
	if proposal.Version != 1 {
		t.Fatalf("expected version 1, got %d", proposal.Version)
	}
	if !proposal.CreatedAt.Equal(submittedAt) {
		t.Fatalf("expected created_at %v, got %v", submittedAt, proposal.CreatedAt)
	}

	stored, err := service.Get(t.Context(), proposal.ID)
	if err != nil {
		t.Fatalf("get stored proposal: %v", err)
	}
	if stored.State != trade.StatePending {
		t.Fatalf("expected stored pending state, got %s", stored.State)
	}
}

func TestProposalService_Submit_InvalidInput(t *testing.T) {
	service, marketRepo := newProposalService(t)
	openWindow(t, marketRepo, market.KindTrade)

	cases := []struct {
		name  string
		input SubmitProposalInput
	}{
		{
			name: "self trade",
			input: SubmitProposalInput{
				RequestingTeamID:   memory.TeamIDAurora,
				OpposingTeamID:     memory.TeamIDAurora,
				Kind:               string(trade.KindPlayersOnly),
				OfferedPlayerIDs:   []string{"pl-mid-01"},
				RequestedPlayerIDs: []string{"pl-fwd-01"},
			},
		},
		{
			name: "players only with credits",
			input: SubmitProposalInput{
				RequestingTeamID:   memory.TeamIDAurora,
				OpposingTeamID:     memory.TeamIDBorealis,
				Kind:               string(trade.KindPlayersOnly),
				OfferedPlayerIDs:   []string{"pl-mid-01"},
				RequestedPlayerIDs: []string{"pl-mid-02"},
				OfferedCredits:     10,
			},
		},
		{
			name: "credits only without requested player",
			input: SubmitProposalInput{
				RequestingTeamID: memory.TeamIDAurora,
				OpposingTeamID:   memory.TeamIDBorealis,
				Kind:             string(trade.KindCreditsOnly),
				OfferedCredits:   20,
			},
		},
		{
			name: "offered player not owned by requester",
			input: SubmitProposalInput{
				RequestingTeamID:   memory.TeamIDAurora,
				OpposingTeamID:     memory.TeamIDBorealis,
				Kind:               string(trade.KindPlayersOnly),
				OfferedPlayerIDs:   []string{"pl-mid-02"},
				RequestedPlayerIDs: []string{"pl-mid-01"},
			},
		},
		{
			name: "offered credits exceed team balance",
			input: SubmitProposalInput{
				RequestingTeamID:  memory.TeamIDAurora,
				OpposingTeamID:    memory.TeamIDBorealis,
				Kind:              string(trade.KindCreditsOnly),
				RequestedPlayerID: "pl-mid-02",
				OfferedCredits:    500,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Submit(t.Context(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProposalService_Submit_UnknownTeamAndPlayer(t *testing.T) {
	service, marketRepo := newProposalService(t)
	openWindow(t, marketRepo, market.KindTrade)

	_, err := service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     "team-ghost",
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}

	_, err = service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-ghost"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player, got %v", err)
	}
}

func TestProposalService_Submit_DuplicateActiveTerms(t *testing.T) {
	service, marketRepo := newProposalService(t)
	openWindow(t, marketRepo, market.KindTrade)

	input := SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersPlusCredits),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-fwd-02"},
		OfferedCredits:     15,
	}

	if _, err := service.Submit(t.Context(), input); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := service.Submit(t.Context(), input)
	if !errors.Is(err, ErrDuplicateProposal) {
		t.Fatalf("expected ErrDuplicateProposal, got %v", err)
	}

	// Different credits are different terms, not a duplicate.
	input.OfferedCredits = 20
	if _, err := service.Submit(t.Context(), input); err != nil {
		t.Fatalf("submit with changed terms failed: %v", err)
	}
}

func TestProposalService_Submit_PlayerAwaitingRenewal(t *testing.T) {
	marketRepo := memory.NewMarketRepository()
	obligationRepo := memory.NewObligationRepository()
	service := NewProposalService(
		memory.NewProposalRepository(),
		memory.NewTeamRepository(memory.SeedTeams()),
		memory.NewPlayerRepository(memory.SeedPlayers()),
		obligationRepo,
		marketRepo,
		&seqIDGenerator{prefix: "prop"},
		memory.NewAuditRepository(),
		logging.NewNop(),
	)
	openWindow(t, marketRepo, market.KindTrade)

	if err := obligationRepo.Save(t.Context(), newPendingObligation("ob-1", memory.TeamIDAurora, "pl-mid-01")); err != nil {
		t.Fatalf("seed obligation: %v", err)
	}

	_, err := service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for player awaiting renewal, got %v", err)
	}
}

func TestProposalService_ListByTeam(t *testing.T) {
	service, marketRepo := newProposalService(t)
	openWindow(t, marketRepo, market.KindTrade)

	if _, err := service.Submit(t.Context(), SubmitProposalInput{
		RequestingTeamID:   memory.TeamIDAurora,
		OpposingTeamID:     memory.TeamIDBorealis,
		Kind:               string(trade.KindPlayersOnly),
		OfferedPlayerIDs:   []string{"pl-mid-01"},
		RequestedPlayerIDs: []string{"pl-mid-02"},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	for teamID, want := range map[string]int{
		memory.TeamIDAurora:   1,
		memory.TeamIDBorealis: 1,
		memory.TeamIDCorsari:  0,
	} {
		proposals, err := service.ListByTeam(t.Context(), teamID)
		if err != nil {
			t.Fatalf("list proposals for %s: %v", teamID, err)
		}
		if len(proposals) != want {
			t.Fatalf("expected %d proposals for %s, got %d", want, teamID, len(proposals))
		}
	}

	if _, err := service.ListByTeam(t.Context(), "team-ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}
}
