package runlog

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/policy"
)

// maxTitleWidth bounds event titles on the console; JSON keeps them whole.
const maxTitleWidth = 80

// Console prints run progress. Colors are dropped automatically when the
// writer is not a terminal.
type Console struct {
	w io.Writer

	headerStyle  lipgloss.Style
	okStyle      lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	mutedStyle   lipgloss.Style
	labelStyle   lipgloss.Style
	calendarName lipgloss.Style
}

func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:            w,
		headerStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		okStyle:      r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		mutedStyle:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		labelStyle:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		calendarName: r.NewStyle().Bold(true),
	}
}

// Banner echoes the run settings.
func (c *Console) Banner(minutes int64, months int, removeCustom, replaceDefault bool) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.headerStyle.Render(fmt.Sprintf("🔧 Setting reminders for all events: popup %d minutes before event", minutes)))
	fmt.Fprintf(c.w, "🗓️  Processing range: from today to +%d months\n", months)
	fmt.Fprintf(c.w, "⚙️  REMOVE_EXISTING_CUSTOM_REMINDERS = %t\n", removeCustom)
	fmt.Fprintf(c.w, "⚙️  REPLACE_DEFAULT_REMINDERS = %t\n", replaceDefault)
	fmt.Fprintln(c.w)

	if !removeCustom && !replaceDefault {
		fmt.Fprintln(c.w, c.warnStyle.Render("⚠️  WARNING: Nothing to update. Both custom and default reminders will be preserved."))
		fmt.Fprintln(c.w)
	}
}

func (c *Console) OwnedCalendars(n int) {
	fmt.Fprintf(c.w, "📋 Found calendars with owner access: %d\n\n", n)
}

func (c *Console) CalendarStart(cal core.Calendar) {
	fmt.Fprintf(c.w, "📅 Processing calendar: %s (%s)\n", c.calendarName.Render(cal.Name), cal.ID)
}

func (c *Console) EventsFound(n int) {
	fmt.Fprintf(c.w, "   🔍 Events found: %d\n", n)
}

func (c *Console) CalendarError(cal core.Calendar, err error) {
	fmt.Fprintln(c.w, c.errorStyle.Render(fmt.Sprintf("   ❌ Error while processing calendar %s: %v", cal.ID, err)))
}

// Progress prints a dot every 10 events and a line every 50.
func (c *Console) Progress(processed int) {
	switch {
	case processed%50 == 0:
		fmt.Fprintf(c.w, "\n      🔁 Processed %d events...\n", processed)
	case processed%10 == 0:
		fmt.Fprint(c.w, ".")
	}
}

func (c *Console) CalendarDone(updated, skipped int) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.okStyle.Render(fmt.Sprintf("   ✅ Events updated: %d", updated)))
	fmt.Fprintln(c.w, c.warnStyle.Render(fmt.Sprintf("   ⚠️ Events skipped: %d", skipped)))
}

// NoReminders flags an event with an explicit, empty reminder list.
func (c *Console) NoReminders(ev core.Event) {
	fmt.Fprintln(c.w, "\n      "+c.warnStyle.Render("⚠️ Event has no reminders at all: "+title(ev.Title())))
}

func (c *Console) Updated(entry Updated) {
	fmt.Fprintln(c.w, "\n      "+c.okStyle.Render("✅ Updated event: "+title(entry.Summary)))
	for _, r := range entry.Reminders {
		fmt.Fprintf(c.w, "         - %s: %d minutes\n", r.Method, r.Minutes)
	}
}

func (c *Console) Skipped(entry Skipped) {
	switch entry.Reason {
	case policy.ReasonDefaultPreserved:
		fmt.Fprintln(c.w, "\n      "+c.mutedStyle.Render("⏭️ Skipping event using default reminders: "+title(entry.Summary)))
	case policy.ReasonAlreadyPresent:
		fmt.Fprintln(c.w, "\n      "+c.mutedStyle.Render("✔️ Event already has such popup: "+title(entry.Summary)))
	}

	fmt.Fprintln(c.w, c.warnStyle.Render("    ⚠️ Skipped event:"))
	c.field("Title:    ", title(entry.Summary))
	c.field("Date:     ", entry.Start.Value())
	c.field("Creator:  ", deref(entry.Creator))
	c.field("Organizer:", deref(entry.Organizer))
	fmt.Fprintf(c.w, "       🔔 useDefault: %t\n", entry.UseDefault)

	switch {
	case entry.UseDefault:
		fmt.Fprintln(c.w, "       🔔 defaultReminders from calendar:")
		if len(entry.DefaultReminders) == 0 {
			fmt.Fprintln(c.w, c.mutedStyle.Render("         (No default reminders set)"))
		}
		c.rules(entry.DefaultReminders)
	case len(entry.Overrides) > 0:
		fmt.Fprintln(c.w, "       🔔 overrides:")
		c.rules(entry.Overrides)
	default:
		fmt.Fprintln(c.w, "       🔔 overrides: None")
	}

	if entry.Error != "" {
		fmt.Fprintf(c.w, "       %s %s\n", c.labelStyle.Render("Reason:   "), c.errorStyle.Render(entry.Error))
	}
}

// Done prints the elapsed run time.
func (c *Console) Done(elapsed time.Duration) {
	fmt.Fprintf(c.w, "\n⏳ Script completed in %.2f seconds.\n\n", elapsed.Seconds())
}

func (c *Console) field(label, value string) {
	fmt.Fprintf(c.w, "       %s %s\n", c.labelStyle.Render(label), value)
}

func (c *Console) rules(rules []core.ReminderRule) {
	for _, r := range rules {
		fmt.Fprintf(c.w, "         - %s: %d minutes\n", r.Method, r.Minutes)
	}
}

func title(s string) string {
	return ansi.Truncate(s, maxTitleWidth, "…")
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
