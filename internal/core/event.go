package core

// AccessRole is the identity's permission level on a calendar.
type AccessRole string

const (
	RoleOwner          AccessRole = "owner"
	RoleWriter         AccessRole = "writer"
	RoleReader         AccessRole = "reader"
	RoleFreeBusyReader AccessRole = "freeBusyReader"
)

// MethodPopup is the in-app notification reminder method.
const MethodPopup = "popup"

// UntitledSummary replaces a missing event title in logs and console output.
const UntitledSummary = "Untitled"

// Calendar identifies a calendar the authenticated identity can see.
type Calendar struct {
	// Calendar ID (e.g., "primary", "user@example.com", "c_xxx@group.calendar.google.com")
	ID string
	// Human-readable name (summary override, summary, or a placeholder)
	Name string
	Role AccessRole
}

// ReminderRule is one reminder: a delivery method and minutes before start.
type ReminderRule struct {
	Method  string `json:"method" yaml:"method"`
	Minutes int64  `json:"minutes" yaml:"minutes"`
}

// ReminderConfig is either "inherit calendar defaults" or an explicit list.
// Overrides is ignored when UseDefault is true.
type ReminderConfig struct {
	UseDefault bool
	Overrides  []ReminderRule
}

// HasNoReminders reports an explicit config with nothing in it.
func (r ReminderConfig) HasNoReminders() bool {
	return !r.UseDefault && len(r.Overrides) == 0
}

// EventTime mirrors the remote start object: timed events carry DateTime,
// all-day events carry Date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Value returns DateTime, falling back to Date.
func (t EventTime) Value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Event is the transient copy of a remote event the batch works on.
type Event struct {
	ID string
	// Which calendar this event belongs to
	CalendarID string
	Summary    string
	// Nil when the remote event had no start at all
	Start          *EventTime
	CreatorEmail   string
	OrganizerEmail string
	Reminders      ReminderConfig
}

// Title returns the summary or UntitledSummary.
func (e Event) Title() string {
	if e.Summary == "" {
		return UntitledSummary
	}
	return e.Summary
}

// StartValue returns the start dateTime/date, or "" when absent.
func (e Event) StartValue() string {
	if e.Start == nil {
		return ""
	}
	return e.Start.Value()
}

// CloneRules copies rules so callers never share a backing array.
// The result is never nil.
func CloneRules(rules []ReminderRule) []ReminderRule {
	out := make([]ReminderRule, len(rules))
	copy(out, rules)
	return out
}
