// Package runlog accumulates per-event outcomes of a batch run and writes
// them to the console and to JSON files.
package runlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theakshaypant/remind/internal/core"
)

const (
	UpdatedFile = "updated_events.json"
	SkippedFile = "skipped_events.json"
)

// Updated is one entry of updated_events.json.
type Updated struct {
	Summary   string              `json:"summary"`
	Start     core.EventTime      `json:"start"`
	Reminders []core.ReminderRule `json:"reminders"`
}

// Skipped is one entry of skipped_events.json.
type Skipped struct {
	Summary          string              `json:"summary"`
	Start            core.EventTime      `json:"start"`
	Creator          *string             `json:"creator"`
	Organizer        *string             `json:"organizer"`
	UseDefault       bool                `json:"useDefault"`
	Overrides        []core.ReminderRule `json:"overrides"`
	DefaultReminders []core.ReminderRule `json:"defaultReminders"`
	Reason           string              `json:"reason,omitempty"`
	Error            string              `json:"error,omitempty"`
}

// Log is the append-only pair of outcome sequences for one run.
// Every recorded entry is also printed to the console writer.
type Log struct {
	console *Console
	updated []Updated
	skipped []Skipped
}

// New returns an empty Log that prints to console. A nil console discards output.
func New(console *Console) *Log {
	if console == nil {
		console = NewConsole(io.Discard)
	}
	return &Log{
		console: console,
		updated: []Updated{},
		skipped: []Skipped{},
	}
}

// Console returns the writer entries are printed to.
func (l *Log) Console() *Console { return l.console }

// RecordUpdated appends an updated entry.
func (l *Log) RecordUpdated(ev core.Event, applied []core.ReminderRule) {
	entry := Updated{
		Summary:   ev.Title(),
		Start:     startOf(ev),
		Reminders: core.CloneRules(applied),
	}
	l.updated = append(l.updated, entry)
	l.console.Updated(entry)
}

// RecordSkipped appends a skipped entry. reason is set for deliberate
// skips, err for failures; either may be empty/nil.
func (l *Log) RecordSkipped(ev core.Event, defaults []core.ReminderRule, reason string, err error) {
	entry := Skipped{
		Summary:          ev.Title(),
		Start:            startOf(ev),
		Creator:          optional(ev.CreatorEmail),
		Organizer:        optional(ev.OrganizerEmail),
		UseDefault:       ev.Reminders.UseDefault,
		Overrides:        core.CloneRules(ev.Reminders.Overrides),
		DefaultReminders: core.CloneRules(defaults),
		Reason:           reason,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.skipped = append(l.skipped, entry)
	l.console.Skipped(entry)
}

// Updated returns a copy of the updated entries in record order.
func (l *Log) Updated() []Updated {
	return append([]Updated{}, l.updated...)
}

// Skipped returns a copy of the skipped entries in record order.
func (l *Log) Skipped() []Skipped {
	return append([]Skipped{}, l.skipped...)
}

// Flush serializes both logs as indented JSON.
func (l *Log) Flush() (updated, skipped []byte, err error) {
	if updated, err = marshal(l.updated); err != nil {
		return nil, nil, fmt.Errorf("encode updated log: %w", err)
	}
	if skipped, err = marshal(l.skipped); err != nil {
		return nil, nil, fmt.Errorf("encode skipped log: %w", err)
	}
	return updated, skipped, nil
}

// WriteFiles flushes both logs into dir.
func (l *Log) WriteFiles(dir string) error {
	updated, skipped, err := l.Flush()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, UpdatedFile), updated, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", UpdatedFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, SkippedFile), skipped, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", SkippedFile, err)
	}
	return nil
}

// marshal indents like the console output reads and keeps <, >, & and
// non-ASCII text literal.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func startOf(ev core.Event) core.EventTime {
	if ev.Start == nil {
		return core.EventTime{}
	}
	return *ev.Start
}

// optional keeps absent emails as JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
