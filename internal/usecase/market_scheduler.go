package usecase

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

const schedulerActor = "market-scheduler"

// MarketSchedulerConfig sizes the periodic tick.
type MarketSchedulerConfig struct {
	TickInterval time.Duration
}

// MarketScheduler drives the automatic open/close transitions from the
// configured schedules. Every transition goes through MarketService.Toggle,
// the same CAS path manual toggles use, so any number of concurrently
// polling instances converge on a single effective transition. A failed
// tick is logged and retried on the next interval; the scheduler never
// terminates on error.
type MarketScheduler struct {
	marketSvc *MarketService
	cfg       MarketSchedulerConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewMarketScheduler(marketSvc *MarketService, cfg MarketSchedulerConfig, logger *logging.Logger) *MarketScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}

	return &MarketScheduler{
		marketSvc: marketSvc,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run blocks ticking until the context is cancelled.
func (s *MarketScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("market scheduler started", "tick_interval", s.cfg.TickInterval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates both window kinds once, concurrently.
func (s *MarketScheduler) Tick(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketScheduler.Tick")
	defer span.End()

	var wg conc.WaitGroup
	for kind := range market.AllKinds {
		kind := kind
		wg.Go(func() {
			if err := s.tickWindow(ctx, kind); err != nil {
				s.logger.WarnContext(ctx, "scheduler tick failed",
					"kind", string(kind),
					"error", err,
				)
			}
		})
	}
	wg.Wait()
}

func (s *MarketScheduler) tickWindow(ctx context.Context, kind market.Kind) error {
	window, err := s.marketSvc.GetWindow(ctx, kind)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	switch {
	case window.CloseDue(now):
		effective, err := s.marketSvc.Toggle(ctx, ToggleWindowInput{Kind: kind, Open: false, Actor: schedulerActor})
		if err != nil {
			return err
		}
		if effective {
			s.logger.InfoContext(ctx, "market closed by schedule", "kind", string(kind))
		}
	case window.OpenDue(now):
		effective, err := s.marketSvc.Toggle(ctx, ToggleWindowInput{Kind: kind, Open: true, Actor: schedulerActor})
		if err != nil {
			return err
		}
		if effective {
			s.logger.InfoContext(ctx, "market opened by schedule", "kind", string(kind))
		}
	}

	return nil
}
