// Package runner drives one batch pass over every owned calendar.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/policy"
	"github.com/theakshaypant/remind/internal/runlog"
)

// Options configures a run.
type Options struct {
	Policy policy.Options
	Window core.Window
	// Calendars optionally narrows owned calendars by ID or name fragment.
	Calendars []string
	// OutputDir receives the two JSON logs. Empty skips writing them.
	OutputDir string
}

// Summary counts what a run did.
type Summary struct {
	Calendars       int
	FailedCalendars int
	Updated         int
	Skipped         int
}

type Runner struct {
	provider core.Provider
	log      *runlog.Log
	now      func() time.Time
}

func New(provider core.Provider, log *runlog.Log) *Runner {
	return &Runner{
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// Run processes owned calendars in listed order and events in fetched order.
// Only listing calendars and writing the logs can fail the run.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	started := r.now()
	console := r.log.Console()

	calendars, err := r.provider.OwnedCalendars(ctx)
	if err != nil {
		return sum, fmt.Errorf("list owned calendars: %w", err)
	}
	if len(opts.Calendars) > 0 {
		calendars = FilterCalendars(calendars, opts.Calendars)
	}
	console.OwnedCalendars(len(calendars))

	slog.Debug("processing window", "timeMin", opts.Window.Start.Format(time.RFC3339), "timeMax", opts.Window.End.Format(time.RFC3339))

	for _, cal := range calendars {
		sum.Calendars++
		updated, skipped, err := r.processCalendar(ctx, cal, opts)
		if err != nil {
			sum.FailedCalendars++
			console.CalendarError(cal, err)
			slog.Debug("calendar abandoned", "calendar", cal.ID, "err", err)
			continue
		}
		sum.Updated += updated
		sum.Skipped += skipped
	}

	if opts.OutputDir != "" {
		if err := r.log.WriteFiles(opts.OutputDir); err != nil {
			return sum, fmt.Errorf("save logs: %w", err)
		}
	}

	console.Done(r.now().Sub(started))
	return sum, nil
}

func (r *Runner) processCalendar(ctx context.Context, cal core.Calendar, opts Options) (updated, skipped int, err error) {
	console := r.log.Console()
	console.CalendarStart(cal)

	events, err := r.provider.Events(ctx, cal.ID, opts.Window)
	if err != nil {
		return 0, 0, err
	}
	console.EventsFound(len(events))

	defaults, err := r.provider.DefaultReminders(ctx, cal.ID)
	if err != nil {
		return 0, 0, err
	}

	for idx, ev := range events {
		if r.processEvent(ctx, cal.ID, ev, defaults, opts.Policy) {
			updated++
		} else {
			skipped++
		}
		console.Progress(idx + 1)
	}

	console.CalendarDone(updated, skipped)
	return updated, skipped, nil
}

// processEvent records exactly one outcome for ev and reports whether it
// was updated.
func (r *Runner) processEvent(ctx context.Context, calendarID string, ev core.Event, defaults []core.ReminderRule, opts policy.Options) bool {
	if err := core.ValidateEvent(ev); err != nil {
		r.log.RecordSkipped(ev, defaults, "", err)
		return false
	}

	d := policy.Decide(ev, defaults, opts)
	if d.NoReminders {
		r.log.Console().NoReminders(ev)
	}

	if d.Skipped() {
		r.log.RecordSkipped(ev, defaults, d.Action.String(), nil)
		return false
	}

	applied, err := r.provider.ApplyReminders(ctx, calendarID, ev.ID, d.Overrides)
	if err != nil {
		r.log.RecordSkipped(ev, defaults, "", err)
		return false
	}

	r.log.RecordUpdated(ev, applied)
	return true
}

// FilterCalendars keeps calendars matching any name, by exact ID or
// case-insensitive name fragment. Order of cals is preserved.
func FilterCalendars(cals []core.Calendar, names []string) []core.Calendar {
	var out []core.Calendar

	for _, cal := range cals {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if cal.ID == name || strings.Contains(strings.ToLower(cal.Name), strings.ToLower(name)) {
				out = append(out, cal)
				break
			}
		}
	}

	return out
}
