package core

import (
	"context"
	"time"
)

// Window is the half-open time range [Start, End) events are fetched from.
type Window struct {
	Start time.Time
	End   time.Time
}

// ForwardWindow returns [now, now + 30*months days) in UTC.
func ForwardWindow(now time.Time, months int) Window {
	start := now.UTC()
	return Window{
		Start: start,
		End:   start.Add(time.Duration(months) * 30 * 24 * time.Hour),
	}
}

// Provider is the authenticated calendar service the batch runs against.
// Every method returns a *TransportError when the remote call fails.
type Provider interface {
	// OwnedCalendars lists calendars where the identity has the owner role,
	// in the order the service returned them.
	OwnedCalendars(ctx context.Context) ([]Calendar, error)
	// Events returns single-occurrence events in w, ordered by start time.
	Events(ctx context.Context, calendarID string, w Window) ([]Event, error)
	// DefaultReminders returns the calendar's default reminder rules.
	// The result is never nil.
	DefaultReminders(ctx context.Context, calendarID string) ([]ReminderRule, error)
	// ApplyReminders sets the event to explicit overrides and returns the
	// rules the service stored.
	ApplyReminders(ctx context.Context, calendarID, eventID string, overrides []ReminderRule) ([]ReminderRule, error)
}
