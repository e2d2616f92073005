package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/domain/renewal"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

func newPendingObligation(id, teamID string, playerIDs ...string) renewal.Obligation {
	return renewal.Obligation{
		ID:        id,
		TeamID:    teamID,
		PlayerIDs: playerIDs,
		State:     renewal.StatePending,
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newRenewalFixture(t *testing.T) (*RenewalService, *memory.PlayerRepository, *memory.ObligationRepository, *memory.MarketRepository) {
	t.Helper()

	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
	obligationRepo := memory.NewObligationRepository()
	marketRepo := memory.NewMarketRepository()

	service := NewRenewalService(
		playerRepo,
		obligationRepo,
		marketRepo,
		memory.NewAuditRepository(),
		logging.NewNop(),
	)

	return service, playerRepo, obligationRepo, marketRepo
}

func TestRenewalService_Renew_MarketClosed(t *testing.T) {
	service, _, _, _ := newRenewalFixture(t)

	_, err := service.Renew(t.Context(), member.Principal{MemberID: "m-1", TeamID: memory.TeamIDAurora}, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   12,
	})
	if !errors.Is(err, ErrMarketClosed) {
		t.Fatalf("expected ErrMarketClosed, got %v", err)
	}
}

func TestRenewalService_Renew_TwelveMonths(t *testing.T) {
	service, playerRepo, _, marketRepo := newRenewalFixture(t)
	openWindow(t, marketRepo, market.KindRenewal)

	renewedAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return renewedAt }

	// pl-mid-01 holds a current value of 68; a 12-month renewal halves it
	// rounding up.
	p, err := service.Renew(t.Context(), member.Principal{MemberID: "m-1", TeamID: memory.TeamIDAurora}, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   12,
	})
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}

	if p.CurrentValue != 34 || p.BaseValue != 34 {
		t.Fatalf("expected renewed value 34/34, got current=%d base=%d", p.CurrentValue, p.BaseValue)
	}
	wantExpiry := renewedAt.AddDate(0, 12, 0)
	if p.ContractExpiry == nil || !p.ContractExpiry.Equal(wantExpiry) {
		t.Fatalf("expected contract expiry %v, got %v", wantExpiry, p.ContractExpiry)
	}

	stored, exists, err := playerRepo.GetByID(t.Context(), "pl-mid-01")
	if err != nil || !exists {
		t.Fatalf("reload player: exists=%v err=%v", exists, err)
	}
	if stored.CurrentValue != 34 {
		t.Fatalf("expected stored value 34, got %d", stored.CurrentValue)
	}
}

func TestRenewalService_Renew_Authorization(t *testing.T) {
	service, _, _, marketRepo := newRenewalFixture(t)
	openWindow(t, marketRepo, market.KindRenewal)

	_, err := service.Renew(t.Context(), member.Principal{MemberID: "m-2", TeamID: memory.TeamIDBorealis}, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   12,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign team, got %v", err)
	}

	// An admin may renew on any team's behalf.
	if _, err := service.Renew(t.Context(), member.Principal{MemberID: "adm-1", Admin: true}, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   18,
	}); err != nil {
		t.Fatalf("admin renew failed: %v", err)
	}
}

func TestRenewalService_Renew_BadInput(t *testing.T) {
	service, _, _, marketRepo := newRenewalFixture(t)
	openWindow(t, marketRepo, market.KindRenewal)

	actor := member.Principal{MemberID: "m-1", TeamID: memory.TeamIDAurora}

	_, err := service.Renew(t.Context(), actor, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   24,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unsupported duration, got %v", err)
	}

	_, err = service.Renew(t.Context(), actor, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-02",
		Months:   12,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for foreign player, got %v", err)
	}

	_, err = service.Renew(t.Context(), actor, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-ghost",
		Months:   12,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player, got %v", err)
	}
}

func TestRenewalService_Renew_CompletesObligation(t *testing.T) {
	service, _, obligationRepo, marketRepo := newRenewalFixture(t)
	openWindow(t, marketRepo, market.KindRenewal)

	if err := obligationRepo.Save(t.Context(), newPendingObligation("ob-1", memory.TeamIDAurora, "pl-mid-01", "pl-fwd-01")); err != nil {
		t.Fatalf("seed obligation: %v", err)
	}

	actor := member.Principal{MemberID: "m-1", TeamID: memory.TeamIDAurora}

	if _, err := service.Renew(t.Context(), actor, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-mid-01",
		Months:   12,
	}); err != nil {
		t.Fatalf("first renew failed: %v", err)
	}

	obligations, err := service.ListObligations(t.Context(), memory.TeamIDAurora)
	if err != nil {
		t.Fatalf("list obligations: %v", err)
	}
	if len(obligations) != 1 {
		t.Fatalf("expected 1 obligation, got %d", len(obligations))
	}
	if obligations[0].State != renewal.StatePending {
		t.Fatalf("expected obligation still pending after one renewal, got %s", obligations[0].State)
	}
	if !obligations[0].Renewed("pl-mid-01") {
		t.Fatalf("expected pl-mid-01 marked renewed")
	}

	if _, err := service.Renew(t.Context(), actor, RenewPlayerInput{
		TeamID:   memory.TeamIDAurora,
		PlayerID: "pl-fwd-01",
		Months:   18,
	}); err != nil {
		t.Fatalf("second renew failed: %v", err)
	}

	obligations, err = service.ListObligations(t.Context(), memory.TeamIDAurora)
	if err != nil {
		t.Fatalf("list obligations after completion: %v", err)
	}
	if obligations[0].State != renewal.StateCompleted {
		t.Fatalf("expected obligation completed, got %s", obligations[0].State)
	}
}
