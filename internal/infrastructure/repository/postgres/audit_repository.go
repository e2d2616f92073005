package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
)

type auditEventTableModel struct {
	ID         int64     `db:"id"`
	EventID    string    `db:"event_id"`
	Action     string    `db:"action"`
	Actor      string    `db:"actor"`
	EntityKind string    `db:"entity_kind"`
	EntityID   string    `db:"entity_id"`
	Outcome    string    `db:"outcome"`
	Detail     *string   `db:"detail"`
	OccurredAt time.Time `db:"occurred_at"`
	TraceID    string    `db:"trace_id"`
	SpanID     string    `db:"span_id"`
}

func (m auditEventTableModel) toDomain() (audit.Event, error) {
	event := audit.Event{
		EventID:    m.EventID,
		Action:     m.Action,
		Actor:      m.Actor,
		EntityKind: m.EntityKind,
		EntityID:   m.EntityID,
		Outcome:    audit.Outcome(m.Outcome),
		OccurredAt: m.OccurredAt,
		TraceID:    m.TraceID,
		SpanID:     m.SpanID,
	}
	if m.Detail != nil && *m.Detail != "" {
		if err := sonic.Unmarshal([]byte(*m.Detail), &event.Detail); err != nil {
			return audit.Event{}, fmt.Errorf("decode audit detail: %w", err)
		}
	}
	return event, nil
}

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, event audit.Event) error {
	const query = `
INSERT INTO audit_events (event_id, action, actor, entity_kind, entity_id, outcome, detail, occurred_at, trace_id, span_id)
VALUES (:event_id, :action, :actor, :entity_kind, :entity_id, :outcome, :detail, :occurred_at, :trace_id, :span_id)`

	var detail *string
	if len(event.Detail) > 0 {
		encoded, err := sonic.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("encode audit detail: %w", err)
		}
		raw := string(encoded)
		detail = &raw
	}

	args := map[string]any{
		"event_id":    event.EventID,
		"action":      event.Action,
		"actor":       event.Actor,
		"entity_kind": event.EntityKind,
		"entity_id":   event.EntityID,
		"outcome":     string(event.Outcome),
		"detail":      detail,
		"occurred_at": event.OccurredAt,
		"trace_id":    event.TraceID,
		"span_id":     event.SpanID,
	}
	appendSQL, appendArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind append audit event query: %w", err)
	}
	appendSQL = r.db.Rebind(appendSQL)
	if _, err := r.db.ExecContext(ctx, appendSQL, appendArgs...); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}

	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityKind, entityID string) ([]audit.Event, error) {
	const query = `
SELECT id, event_id, action, actor, entity_kind, entity_id, outcome, detail, occurred_at, trace_id, span_id
FROM audit_events
WHERE entity_kind = $1
  AND entity_id = $2
ORDER BY occurred_at, id`

	var rows []auditEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, entityKind, entityID); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	events := make([]audit.Event, 0, len(rows))
	for _, row := range rows {
		event, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}
