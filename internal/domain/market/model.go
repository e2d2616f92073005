package market

import (
	"fmt"
	"time"
)

// Kind distinguishes the league's two scheduled windows: the trading market
// and the contract renewal market.
type Kind string

const (
	KindTrade   Kind = "trade"
	KindRenewal Kind = "renewal"
)

var AllKinds = map[Kind]struct{}{
	KindTrade:   {},
	KindRenewal: {},
}

// Window is the league-wide open/closed state of one market. Automatic and
// manual toggles both go through a version-checked compare-and-swap so
// concurrent pollers converge on a single effective transition.
type Window struct {
	Kind             Kind
	IsOpen           bool
	ScheduledOpenAt  *time.Time
	ScheduledCloseAt *time.Time
	LastNotifiedAt   *time.Time
	Version          int64
	UpdatedAt        time.Time
}

func (w Window) Validate() error {
	if _, ok := AllKinds[w.Kind]; !ok {
		return fmt.Errorf("invalid market window kind: %s", w.Kind)
	}
	return nil
}

// CloseDue reports whether an open window has reached its scheduled close.
func (w Window) CloseDue(now time.Time) bool {
	return w.IsOpen && w.ScheduledCloseAt != nil && !now.Before(*w.ScheduledCloseAt)
}

// OpenDue reports whether a closed window should open: the scheduled open
// time has passed, today is the scheduled calendar day, and today's close
// has not already gone by. The calendar-day guard keeps yesterday's schedule
// from reopening the market on a later tick.
func (w Window) OpenDue(now time.Time) bool {
	if w.IsOpen || w.ScheduledOpenAt == nil {
		return false
	}
	openAt := *w.ScheduledOpenAt
	if now.Before(openAt) {
		return false
	}
	if !sameCalendarDay(now, openAt) {
		return false
	}
	if w.ScheduledCloseAt != nil && sameCalendarDay(now, *w.ScheduledCloseAt) && !now.Before(*w.ScheduledCloseAt) {
		return false
	}
	return true
}

// NotifyDue reports whether enough time has passed since the last sent
// notification for another one to go out.
func (w Window) NotifyDue(now time.Time, dedupWindow time.Duration) bool {
	if w.LastNotifiedAt == nil {
		return true
	}
	return now.Sub(*w.LastNotifiedAt) >= dedupWindow
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
