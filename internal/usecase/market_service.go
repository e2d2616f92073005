package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
)

// DefaultNotifyDedupWindow suppresses repeat open/close notifications fired
// within this span of the previous one.
const DefaultNotifyDedupWindow = 5 * time.Minute

// ToggleWindowInput describes one requested market transition. Silent
// transitions change state without notifying; dedup applies regardless.
type ToggleWindowInput struct {
	Kind   market.Kind
	Open   bool
	Silent bool
	Actor  string
}

// MarketService owns every market window transition, manual or scheduled.
// All writers funnel through the same version-checked toggle, so concurrent
// pollers produce exactly one effective transition and one notification.
type MarketService struct {
	marketRepo  market.Repository
	notifier    Notifier
	auditor     *auditRecorder
	logger      *logging.Logger
	dedupWindow time.Duration
	flight      resilience.SingleFlight
	now         func() time.Time
}

func NewMarketService(
	marketRepo market.Repository,
	notifier Notifier,
	auditRepo audit.Repository,
	dedupWindow time.Duration,
	logger *logging.Logger,
) *MarketService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if dedupWindow <= 0 {
		dedupWindow = DefaultNotifyDedupWindow
	}

	return &MarketService{
		marketRepo:  marketRepo,
		notifier:    notifier,
		auditor:     newAuditRecorder(auditRepo, logger),
		logger:      logger,
		dedupWindow: dedupWindow,
		now:         time.Now,
	}
}

func (s *MarketService) GetWindow(ctx context.Context, kind market.Kind) (market.Window, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketService.GetWindow")
	defer span.End()

	if _, ok := market.AllKinds[kind]; !ok {
		return market.Window{}, fmt.Errorf("%w: unknown market kind %q", ErrInvalidInput, kind)
	}

	value, err, _ := s.flight.Do("window:"+string(kind), func() (any, error) {
		window, exists, err := s.marketRepo.Get(ctx, kind)
		if err != nil {
			return market.Window{}, fmt.Errorf("get market window: %w", err)
		}
		if !exists {
			return market.Window{}, fmt.Errorf("%w: market window kind=%s", ErrNotFound, kind)
		}
		return window, nil
	})
	if err != nil {
		return market.Window{}, err
	}

	return value.(market.Window), nil
}

// Toggle flips a window to the requested state. It reports whether the
// transition was effective: an already-matching state or a lost CAS race is
// a benign no-op, not an error, so concurrent pollers converge quietly.
func (s *MarketService) Toggle(ctx context.Context, input ToggleWindowInput) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketService.Toggle")
	defer span.End()

	window, err := s.GetWindow(ctx, input.Kind)
	if err != nil {
		return false, err
	}
	if window.IsOpen == input.Open {
		return false, nil
	}

	now := s.now().UTC()
	updated := window
	updated.IsOpen = input.Open
	updated.UpdatedAt = now

	applied, err := s.marketRepo.SaveCAS(ctx, updated, window.Version)
	if err != nil {
		return false, fmt.Errorf("save market window: %w", err)
	}
	if !applied {
		// Another poller toggled first; this caller's transition never
		// happened, so neither does its notification.
		return false, nil
	}
	updated.Version++

	action := "market.closed"
	verb := "closed"
	if input.Open {
		action = "market.opened"
		verb = "open"
	}
	s.auditor.record(ctx, audit.Event{
		Action:     action,
		Actor:      input.Actor,
		EntityKind: "market_window",
		EntityID:   string(input.Kind),
	})

	if !input.Silent && updated.NotifyDue(now, s.dedupWindow) {
		subject := fmt.Sprintf("The %s market is now %s", input.Kind, verb)
		if err := s.notifier.Notify(ctx, AudienceLeague, subject, subject); err != nil {
			s.logger.WarnContext(ctx, "market notification failed",
				"kind", string(input.Kind),
				"error", err,
			)
		} else {
			notifiedAt := now
			updated.LastNotifiedAt = &notifiedAt
			if _, err := s.marketRepo.SaveCAS(ctx, updated, updated.Version); err != nil {
				s.logger.WarnContext(ctx, "persist notification marker failed",
					"kind", string(input.Kind),
					"error", err,
				)
			}
		}
	}

	s.logger.InfoContext(ctx, "market window toggled",
		"kind", string(input.Kind),
		"open", input.Open,
		"actor", input.Actor,
		"silent", input.Silent,
	)

	return true, nil
}

// SetSchedule is the admin operation configuring when the scheduler should
// open and close a window.
func (s *MarketService) SetSchedule(ctx context.Context, kind market.Kind, openAt, closeAt *time.Time, actor string) (market.Window, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketService.SetSchedule")
	defer span.End()

	if strings.TrimSpace(actor) == "" {
		return market.Window{}, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if openAt != nil && closeAt != nil && !closeAt.After(*openAt) {
		return market.Window{}, fmt.Errorf("%w: close must be after open", ErrInvalidInput)
	}

	window, err := s.GetWindow(ctx, kind)
	if err != nil {
		return market.Window{}, err
	}

	updated := window
	updated.ScheduledOpenAt = openAt
	updated.ScheduledCloseAt = closeAt
	updated.UpdatedAt = s.now().UTC()

	applied, err := s.marketRepo.SaveCAS(ctx, updated, window.Version)
	if err != nil {
		return market.Window{}, fmt.Errorf("save market schedule: %w", err)
	}
	if !applied {
		return market.Window{}, fmt.Errorf("%w: market window %s was updated concurrently", ErrConflict, kind)
	}
	updated.Version++

	return updated, nil
}
