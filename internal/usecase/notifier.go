package usecase

import "context"

// Audience addresses a notification: a single team's managers or the whole
// league.
type Audience string

const AudienceLeague Audience = "league"

func TeamAudience(teamID string) Audience {
	return Audience("team:" + teamID)
}

// Notifier delivers human-readable notifications. Delivery failure is never
// fatal to the operation that triggered it; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, audience Audience, subject, body string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Audience, string, string) error {
	return nil
}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}
