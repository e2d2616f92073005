package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantamercato/trade-engine/internal/domain/market"
)

type marketWindowTableModel struct {
	Kind             string     `db:"kind"`
	IsOpen           bool       `db:"is_open"`
	ScheduledOpenAt  *time.Time `db:"scheduled_open_at"`
	ScheduledCloseAt *time.Time `db:"scheduled_close_at"`
	LastNotifiedAt   *time.Time `db:"last_notified_at"`
	Version          int64      `db:"version"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (m marketWindowTableModel) toDomain() market.Window {
	w := market.Window{
		Kind:      market.Kind(m.Kind),
		IsOpen:    m.IsOpen,
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
	w.ScheduledOpenAt = cloneTimePtr(m.ScheduledOpenAt)
	w.ScheduledCloseAt = cloneTimePtr(m.ScheduledCloseAt)
	w.LastNotifiedAt = cloneTimePtr(m.LastNotifiedAt)
	return w
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type MarketRepository struct {
	db *sqlx.DB
}

func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

func (r *MarketRepository) Get(ctx context.Context, kind market.Kind) (market.Window, bool, error) {
	const query = `
SELECT kind, is_open, scheduled_open_at, scheduled_close_at, last_notified_at, version, updated_at
FROM market_windows
WHERE kind = $1`

	var row marketWindowTableModel
	if err := r.db.GetContext(ctx, &row, query, string(kind)); err != nil {
		if isNotFound(err) {
			return market.Window{}, false, nil
		}
		return market.Window{}, false, fmt.Errorf("get market window: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MarketRepository) SaveCAS(ctx context.Context, w market.Window, expectedVersion int64) (bool, error) {
	const query = `
UPDATE market_windows
SET is_open = :is_open,
    scheduled_open_at = :scheduled_open_at,
    scheduled_close_at = :scheduled_close_at,
    last_notified_at = :last_notified_at,
    version = version + 1,
    updated_at = NOW()
WHERE kind = :kind
  AND version = :version`

	args := map[string]any{
		"kind":               string(w.Kind),
		"is_open":            w.IsOpen,
		"scheduled_open_at":  w.ScheduledOpenAt,
		"scheduled_close_at": w.ScheduledCloseAt,
		"last_notified_at":   w.LastNotifiedAt,
		"version":            expectedVersion,
	}
	casSQL, casArgs, err := sqlx.Named(query, args)
	if err != nil {
		return false, fmt.Errorf("bind save market window query: %w", err)
	}
	casSQL = r.db.Rebind(casSQL)

	result, err := r.db.ExecContext(ctx, casSQL, casArgs...)
	if err != nil {
		return false, fmt.Errorf("save market window: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read market window save result: %w", err)
	}

	return affected == 1, nil
}
