package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

func newMarketService(t *testing.T) (*MarketService, *memory.MarketRepository, *captureNotifier) {
	t.Helper()

	marketRepo := memory.NewMarketRepository()
	notifier := &captureNotifier{}
	service := NewMarketService(marketRepo, notifier, memory.NewAuditRepository(), DefaultNotifyDedupWindow, logging.NewNop())
	return service, marketRepo, notifier
}

func TestMarketService_Toggle_OpenThenNoOp(t *testing.T) {
	service, _, notifier := newMarketService(t)

	effective, err := service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindTrade, Open: true, Actor: "adm-1"})
	if err != nil {
		t.Fatalf("toggle open failed: %v", err)
	}
	if !effective {
		t.Fatalf("expected effective transition")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}

	window, err := service.GetWindow(t.Context(), market.KindTrade)
	if err != nil {
		t.Fatalf("get window: %v", err)
	}
	if !window.IsOpen {
		t.Fatalf("expected trade window open")
	}
	if window.LastNotifiedAt == nil {
		t.Fatalf("expected notification marker persisted")
	}

	// Opening an already-open window changes nothing and notifies nobody.
	effective, err = service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindTrade, Open: true, Actor: "adm-1"})
	if err != nil {
		t.Fatalf("repeat toggle failed: %v", err)
	}
	if effective {
		t.Fatalf("expected no-op on already-open window")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected no extra notification, got %d", notifier.count())
	}

	// The renewal window is independent of the trade window.
	renewalWindow, err := service.GetWindow(t.Context(), market.KindRenewal)
	if err != nil {
		t.Fatalf("get renewal window: %v", err)
	}
	if renewalWindow.IsOpen {
		t.Fatalf("expected renewal window still closed")
	}
}

func TestMarketService_Toggle_NotificationDedup(t *testing.T) {
	service, _, notifier := newMarketService(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	current := base
	service.now = func() time.Time { return current }

	if _, err := service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindTrade, Open: true, Actor: "adm-1"}); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}

	// A close within the dedup window transitions but stays quiet.
	current = base.Add(2 * time.Minute)
	effective, err := service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindTrade, Open: false, Actor: "adm-1"})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !effective {
		t.Fatalf("expected effective close")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected deduped notification, got %d", notifier.count())
	}

	// Past the dedup window the next transition notifies again.
	current = base.Add(10 * time.Minute)
	if _, err := service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindTrade, Open: true, Actor: "adm-1"}); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if notifier.count() != 2 {
		t.Fatalf("expected second notification, got %d", notifier.count())
	}
}

func TestMarketService_Toggle_Silent(t *testing.T) {
	service, _, notifier := newMarketService(t)

	effective, err := service.Toggle(t.Context(), ToggleWindowInput{Kind: market.KindRenewal, Open: true, Silent: true, Actor: "adm-1"})
	if err != nil {
		t.Fatalf("silent toggle failed: %v", err)
	}
	if !effective {
		t.Fatalf("expected effective transition")
	}
	if notifier.count() != 0 {
		t.Fatalf("expected no notification on silent toggle, got %d", notifier.count())
	}
}

func TestMarketService_SetSchedule(t *testing.T) {
	service, _, _ := newMarketService(t)

	openAt := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	closeAt := openAt.Add(8 * time.Hour)

	window, err := service.SetSchedule(t.Context(), market.KindTrade, &openAt, &closeAt, "adm-1")
	if err != nil {
		t.Fatalf("set schedule failed: %v", err)
	}
	if window.ScheduledOpenAt == nil || !window.ScheduledOpenAt.Equal(openAt) {
		t.Fatalf("expected scheduled open %v, got %v", openAt, window.ScheduledOpenAt)
	}
	if window.ScheduledCloseAt == nil || !window.ScheduledCloseAt.Equal(closeAt) {
		t.Fatalf("expected scheduled close %v, got %v", closeAt, window.ScheduledCloseAt)
	}

	if _, err := service.SetSchedule(t.Context(), market.KindTrade, &closeAt, &openAt, "adm-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for close before open, got %v", err)
	}
	if _, err := service.SetSchedule(t.Context(), market.KindTrade, &openAt, &closeAt, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing actor, got %v", err)
	}
}

func TestMarketService_GetWindow_UnknownKind(t *testing.T) {
	service, _, _ := newMarketService(t)

	if _, err := service.GetWindow(t.Context(), market.Kind("loans")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
