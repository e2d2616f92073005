package audit

import "time"

type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Event is one structured audit record for a state transition: proposal
// created/approved/rejected/completed/failed, market opened/closed, renewal
// completed. Recording is fire-and-forget; a failed write never fails the
// transition it describes.
type Event struct {
	EventID    string
	Action     string
	Actor      string
	EntityKind string
	EntityID   string
	Outcome    Outcome
	Detail     map[string]any
	OccurredAt time.Time
	TraceID    string
	SpanID     string
}
