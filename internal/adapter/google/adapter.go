package google

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/theakshaypant/remind/internal/core"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const unnamedCalendar = "Unnamed Calendar"

var _ core.Provider = (*GoogleAdapter)(nil)

// GoogleAdapter talks to Google Calendar as a Workspace user impersonated
// through a service account with domain-wide delegation.
type GoogleAdapter struct {
	service   *calendar.Service
	credsFile string
	subject   string
}

func NewGoogleAdapter(credsFile, subject string) *GoogleAdapter {
	return &GoogleAdapter{
		credsFile: credsFile,
		subject:   subject,
	}
}

// NewGoogleAdapterWithService wraps an already configured service.
func NewGoogleAdapterWithService(svc *calendar.Service) *GoogleAdapter {
	return &GoogleAdapter{service: svc}
}

// Login loads the service account key and initializes the Calendar service
// acting as the configured subject.
func (g *GoogleAdapter) Login(ctx context.Context) error {
	b, err := os.ReadFile(g.credsFile)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return fmt.Errorf("parse service account credentials: %w", err)
	}
	config.Subject = g.subject

	g.service, err = calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return fmt.Errorf("create calendar service: %w", err)
	}

	slog.Debug("calendar service ready", "subject", g.subject, "serviceAccount", config.Email)
	return nil
}

// Calendars lists every calendar the identity can see.
func (g *GoogleAdapter) Calendars(ctx context.Context) ([]core.Calendar, error) {
	var results []core.Calendar
	pageToken := ""

	for {
		req := g.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		calList, err := req.Do()
		if err != nil {
			return nil, &core.TransportError{Op: "list calendars", Err: err}
		}

		for _, cal := range calList.Items {
			results = append(results, parseCalendar(cal))
		}

		pageToken = calList.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return results, nil
}

// OwnedCalendars keeps only calendars with the owner access role.
func (g *GoogleAdapter) OwnedCalendars(ctx context.Context) ([]core.Calendar, error) {
	all, err := g.Calendars(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]core.Calendar, 0, len(all))
	for _, cal := range all {
		if cal.Role == core.RoleOwner {
			owned = append(owned, cal)
		}
	}

	slog.Debug("calendar list loaded", "total", len(all), "owned", len(owned))
	return owned, nil
}

func parseCalendar(cal *calendar.CalendarListEntry) core.Calendar {
	name := cal.SummaryOverride
	if name == "" {
		name = cal.Summary
	}
	if name == "" {
		name = unnamedCalendar
	}

	return core.Calendar{
		ID:   cal.Id,
		Name: name,
		Role: core.AccessRole(cal.AccessRole),
	}
}

func (g *GoogleAdapter) Events(ctx context.Context, calendarID string, w core.Window) ([]core.Event, error) {
	// Google API requires RFC3339 format
	tMin := w.Start.UTC().Format(time.RFC3339)
	tMax := w.End.UTC().Format(time.RFC3339)

	var results []core.Event
	pageToken := ""
	pages := 0

	for {
		req := g.service.Events.List(calendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(tMin).
			TimeMax(tMax).
			OrderBy("startTime").
			Context(ctx)

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		eventsResult, err := req.Do()
		if err != nil {
			return nil, &core.TransportError{Op: "list events for calendar " + calendarID, Err: err}
		}
		pages++

		for _, item := range eventsResult.Items {
			results = append(results, parseEvent(item, calendarID))
		}

		pageToken = eventsResult.NextPageToken
		if pageToken == "" {
			break
		}
	}

	slog.Debug("events fetched", "calendar", calendarID, "timeMin", tMin, "timeMax", tMax, "pages", pages, "events", len(results))
	return results, nil
}

func (g *GoogleAdapter) DefaultReminders(ctx context.Context, calendarID string) ([]core.ReminderRule, error) {
	entry, err := g.service.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, &core.TransportError{Op: "get calendar " + calendarID, Err: err}
	}
	return parseRules(entry.DefaultReminders), nil
}

func (g *GoogleAdapter) ApplyReminders(ctx context.Context, calendarID, eventID string, overrides []core.ReminderRule) ([]core.ReminderRule, error) {
	body := &calendar.Event{
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       toAPIRules(overrides),
			ForceSendFields: []string{"UseDefault", "Overrides"},
		},
	}

	updated, err := g.service.Events.Patch(calendarID, eventID, body).Context(ctx).Do()
	if err != nil {
		return nil, &core.TransportError{Op: "patch event " + eventID, Err: err}
	}

	if updated.Reminders == nil {
		return core.CloneRules(overrides), nil
	}
	return parseRules(updated.Reminders.Overrides), nil
}

// parseEvent converts a Google Calendar event to our Event type.
func parseEvent(item *calendar.Event, calendarID string) core.Event {
	event := core.Event{
		ID:         item.Id,
		CalendarID: calendarID,
		Summary:    item.Summary,
		// Events without a reminders object inherit calendar defaults
		Reminders: core.ReminderConfig{UseDefault: true},
	}

	if item.Start != nil {
		event.Start = &core.EventTime{
			DateTime: item.Start.DateTime,
			Date:     item.Start.Date,
		}
	}
	if item.Creator != nil {
		event.CreatorEmail = item.Creator.Email
	}
	if item.Organizer != nil {
		event.OrganizerEmail = item.Organizer.Email
	}
	if item.Reminders != nil {
		event.Reminders = core.ReminderConfig{
			UseDefault: item.Reminders.UseDefault,
			Overrides:  parseRules(item.Reminders.Overrides),
		}
	}

	return event
}

func parseRules(in []*calendar.EventReminder) []core.ReminderRule {
	out := make([]core.ReminderRule, 0, len(in))
	for _, r := range in {
		if r == nil {
			continue
		}
		out = append(out, core.ReminderRule{Method: r.Method, Minutes: r.Minutes})
	}
	return out
}

func toAPIRules(in []core.ReminderRule) []*calendar.EventReminder {
	out := make([]*calendar.EventReminder, 0, len(in))
	for _, r := range in {
		out = append(out, &calendar.EventReminder{
			Method:  r.Method,
			Minutes: r.Minutes,
			// zero-minute reminders are valid and must not be dropped
			ForceSendFields: []string{"Minutes"},
		})
	}
	return out
}
