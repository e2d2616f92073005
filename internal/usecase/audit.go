package usecase

import (
	"context"
	"time"

	"github.com/fantamercato/trade-engine/internal/domain/audit"
	idgen "github.com/fantamercato/trade-engine/internal/platform/id"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// auditRecorder appends structured transition events without ever failing
// the transition itself.
type auditRecorder struct {
	repo   audit.Repository
	idGen  idgen.Generator
	logger *logging.Logger
	now    func() time.Time
}

func newAuditRecorder(repo audit.Repository, logger *logging.Logger) *auditRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &auditRecorder{repo: repo, idGen: idgen.NewRandomGenerator(), logger: logger, now: time.Now}
}

func (r *auditRecorder) record(ctx context.Context, event audit.Event) {
	if r == nil || r.repo == nil {
		return
	}

	if event.EventID == "" {
		if id, err := r.idGen.NewID(); err == nil {
			event.EventID = id
		}
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}
	if event.Outcome == "" {
		event.Outcome = audit.OutcomeOK
	}

	if err := r.repo.Append(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "record audit event failed",
			"action", event.Action,
			"entity_kind", event.EntityKind,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}
