package runlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/policy"
)

func testEvent(summary string) core.Event {
	return core.Event{
		ID:             "e-" + summary,
		Summary:        summary,
		Start:          &core.EventTime{DateTime: "2025-01-01T10:00:00Z"},
		CreatorEmail:   "creator@example.com",
		OrganizerEmail: "organizer@example.com",
		Reminders: core.ReminderConfig{
			UseDefault: false,
			Overrides:  []core.ReminderRule{{Method: "email", Minutes: 10}},
		},
	}
}

func TestLog_FlushOrderAndShape(t *testing.T) {
	l := New(nil)
	l.RecordUpdated(testEvent("first"), []core.ReminderRule{{Method: "popup", Minutes: 120}})
	l.RecordSkipped(testEvent("second"), nil, policy.ReasonAlreadyPresent, nil)
	l.RecordUpdated(testEvent("third"), []core.ReminderRule{{Method: "popup", Minutes: 120}})
	l.RecordSkipped(core.Event{ID: "x"}, []core.ReminderRule{{Method: "popup", Minutes: 30}}, "", core.ErrMissingStart)

	updated, skipped, err := l.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var gotUpdated []map[string]any
	if err := json.Unmarshal(updated, &gotUpdated); err != nil {
		t.Fatalf("updated json: %v", err)
	}
	if len(gotUpdated) != 2 || gotUpdated[0]["summary"] != "first" || gotUpdated[1]["summary"] != "third" {
		t.Fatalf("unexpected updated log: %s", updated)
	}
	start, ok := gotUpdated[0]["start"].(map[string]any)
	if !ok || start["dateTime"] != "2025-01-01T10:00:00Z" {
		t.Fatalf("unexpected start: %#v", gotUpdated[0]["start"])
	}

	var gotSkipped []map[string]any
	if err := json.Unmarshal(skipped, &gotSkipped); err != nil {
		t.Fatalf("skipped json: %v", err)
	}
	if len(gotSkipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d", len(gotSkipped))
	}

	first := gotSkipped[0]
	if first["summary"] != "second" || first["reason"] != policy.ReasonAlreadyPresent || first["creator"] != "creator@example.com" {
		t.Fatalf("unexpected first skipped entry: %#v", first)
	}
	if _, ok := first["error"]; ok {
		t.Fatalf("error should be omitted: %#v", first)
	}
	if defaults, ok := first["defaultReminders"].([]any); !ok || len(defaults) != 0 {
		t.Fatalf("defaultReminders should be an empty array: %#v", first["defaultReminders"])
	}

	second := gotSkipped[1]
	if second["summary"] != core.UntitledSummary || second["error"] != "Missing start time" {
		t.Fatalf("unexpected second skipped entry: %#v", second)
	}
	if second["creator"] != nil || second["organizer"] != nil {
		t.Fatalf("absent emails should be null: %#v", second)
	}
	if overrides, ok := second["overrides"].([]any); !ok || len(overrides) != 0 {
		t.Fatalf("overrides should be an empty array: %#v", second["overrides"])
	}
}

func TestLog_EmptyFlushWritesArrays(t *testing.T) {
	updated, skipped, err := New(nil).Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if strings.TrimSpace(string(updated)) != "[]" || strings.TrimSpace(string(skipped)) != "[]" {
		t.Fatalf("expected empty arrays, got %q and %q", updated, skipped)
	}
}

func TestLog_PreservesNonASCII(t *testing.T) {
	l := New(nil)
	l.RecordUpdated(testEvent("Встреча <команды> & кофе ☕"), []core.ReminderRule{{Method: "popup", Minutes: 120}})

	updated, _, err := l.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !bytes.Contains(updated, []byte("Встреча <команды> & кофе ☕")) {
		t.Fatalf("expected literal text, got %s", updated)
	}
	if !bytes.Contains(updated, []byte("\n  {\n    \"summary\"")) {
		t.Fatalf("expected two-space indentation, got %s", updated)
	}
}

func TestLog_RecordCopiesRules(t *testing.T) {
	l := New(nil)
	applied := []core.ReminderRule{{Method: "popup", Minutes: 120}}
	l.RecordUpdated(testEvent("a"), applied)
	applied[0].Minutes = 1

	if got := l.Updated()[0].Reminders[0].Minutes; got != 120 {
		t.Fatalf("recorded rules were aliased: %d", got)
	}
}

func TestLog_WriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	l := New(nil)
	l.RecordUpdated(testEvent("a"), []core.ReminderRule{{Method: "popup", Minutes: 120}})
	l.RecordSkipped(testEvent("b"), nil, "", errors.New("boom"))

	if err := l.WriteFiles(dir); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}

	for name, want := range map[string]string{UpdatedFile: `"a"`, SkippedFile: `"boom"`} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), want) {
			t.Fatalf("%s missing %s: %s", name, want, data)
		}
	}
}

func TestLog_ConsoleAgreesWithLog(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewConsole(&buf))

	ev := testEvent("Planning")
	ev.Reminders = core.ReminderConfig{UseDefault: true}
	l.RecordSkipped(ev, nil, policy.ReasonDefaultPreserved, nil)
	l.RecordUpdated(testEvent("Review"), []core.ReminderRule{{Method: "popup", Minutes: 120}})

	out := ansi.Strip(buf.String())
	for _, want := range []string{
		"Skipping event using default reminders: Planning",
		"Skipped event:",
		"(No default reminders set)",
		"Updated event: Review",
		"- popup: 120 minutes",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}
	if len(l.Skipped()) != 1 || len(l.Updated()) != 1 {
		t.Fatalf("unexpected log sizes: %d skipped, %d updated", len(l.Skipped()), len(l.Updated()))
	}
}

func TestConsole_Progress(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	for i := 1; i <= 50; i++ {
		c.Progress(i)
	}

	out := buf.String()
	if strings.Count(out, ".") != 4+3 { // four dots plus the ellipsis
		t.Fatalf("unexpected progress output: %q", out)
	}
	if !strings.Contains(out, "Processed 50 events...") {
		t.Fatalf("missing 50-event marker: %q", out)
	}
}

func TestConsole_TruncatesLongTitles(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Updated(Updated{Summary: strings.Repeat("x", 200)})

	if strings.Contains(buf.String(), strings.Repeat("x", maxTitleWidth+1)) {
		t.Fatalf("title not truncated: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "…") {
		t.Fatalf("missing ellipsis: %q", buf.String())
	}
}
