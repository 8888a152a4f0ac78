package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/runlog"
)

type fakeAdapter struct {
	calendars []core.Calendar
	events    map[string][]core.Event
	patched   []string
}

func (f *fakeAdapter) Login(context.Context) error { return nil }

func (f *fakeAdapter) OwnedCalendars(context.Context) ([]core.Calendar, error) {
	return f.calendars, nil
}

func (f *fakeAdapter) Events(_ context.Context, calendarID string, _ core.Window) ([]core.Event, error) {
	return f.events[calendarID], nil
}

func (f *fakeAdapter) DefaultReminders(context.Context, string) ([]core.ReminderRule, error) {
	return []core.ReminderRule{{Method: core.MethodPopup, Minutes: 30}}, nil
}

func (f *fakeAdapter) ApplyReminders(_ context.Context, _, eventID string, overrides []core.ReminderRule) ([]core.ReminderRule, error) {
	f.patched = append(f.patched, eventID)
	return overrides, nil
}

func resetViper(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		viper.Reset()
		bindFlags()
		setDefaults(viper.GetViper())
	})
	viper.Reset()
	bindFlags()
	setDefaults(viper.GetViper())
}

func testCommand(out *bytes.Buffer) *cobra.Command {
	c := &cobra.Command{}
	c.SetOut(out)
	c.SetContext(context.Background())
	return c
}

func TestLoadSettings_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	s := loadSettings(v)
	if s.CredentialsFile != defaultCredentialsFile || s.ReminderMinutes != 120 || s.MonthsForward != 1 ||
		s.RemoveExistingCustomReminders || !s.ReplaceDefaultReminders || s.OutputDir != "." {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := s.ValidateAuth(); err == nil {
		t.Fatalf("missing subject should fail auth validation")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "ok", mutate: func(*Settings) {}},
		{name: "zero minutes", mutate: func(s *Settings) { s.ReminderMinutes = 0 }},
		{name: "negative minutes", mutate: func(s *Settings) { s.ReminderMinutes = -1 }, wantErr: "minutes"},
		{name: "zero months", mutate: func(s *Settings) { s.MonthsForward = 0 }, wantErr: "months"},
		{name: "empty output", mutate: func(s *Settings) { s.OutputDir = "" }, wantErr: "output_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := starterSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSettings_ValidateAuth(t *testing.T) {
	s := starterSettings()
	if err := s.ValidateAuth(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Subject = "not-an-email"
	if err := s.ValidateAuth(); err == nil {
		t.Fatalf("expected error for non-email subject")
	}
}

func TestSettings_RunOptions(t *testing.T) {
	s := starterSettings()
	s.MonthsForward = 2
	s.RemoveExistingCustomReminders = true
	s.Calendars = "Work, Family"

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := s.RunOptions(now)

	if opts.Policy.Minutes != 120 || !opts.Policy.RemoveExistingCustom || !opts.Policy.ReplaceDefault {
		t.Fatalf("unexpected policy: %+v", opts.Policy)
	}
	if !opts.Window.Start.Equal(now) || opts.Window.End.Sub(opts.Window.Start) != 60*24*time.Hour {
		t.Fatalf("unexpected window: %+v", opts.Window)
	}
	if len(opts.Calendars) != 2 || opts.Calendars[1] != " Family" {
		t.Fatalf("unexpected calendars: %#v", opts.Calendars)
	}
}

func TestRunBatch_WritesBothLogs(t *testing.T) {
	resetViper(t)

	origAdapter := adapter
	t.Cleanup(func() { adapter = origAdapter })
	fake := &fakeAdapter{
		calendars: []core.Calendar{{ID: "cal1", Name: "Main", Role: core.RoleOwner}},
		events: map[string][]core.Event{"cal1": {
			{ID: "e1", Summary: "Café", Start: &core.EventTime{Date: "2025-01-02"}, Reminders: core.ReminderConfig{UseDefault: true}},
			{ID: "e2", Summary: "Done", Start: &core.EventTime{Date: "2025-01-03"}, Reminders: core.ReminderConfig{
				Overrides: []core.ReminderRule{{Method: core.MethodPopup, Minutes: 120}},
			}},
		}},
	}
	adapter = fake

	dir := t.TempDir()
	viper.Set("output_dir", dir)

	var out bytes.Buffer
	if err := runBatch(testCommand(&out), nil); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	if len(fake.patched) != 1 || fake.patched[0] != "e1" {
		t.Fatalf("unexpected patches: %v", fake.patched)
	}

	var updated []runlog.Updated
	readJSON(t, filepath.Join(dir, runlog.UpdatedFile), &updated)
	if len(updated) != 1 || updated[0].Summary != "Café" || len(updated[0].Reminders) != 2 {
		t.Fatalf("unexpected updated log: %+v", updated)
	}

	var skipped []runlog.Skipped
	readJSON(t, filepath.Join(dir, runlog.SkippedFile), &skipped)
	if len(skipped) != 1 || skipped[0].Summary != "Done" {
		t.Fatalf("unexpected skipped log: %+v", skipped)
	}

	for _, want := range []string{"popup 120 minutes before event", "Processing calendar:", "Script completed"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("console missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunBatch_RejectsInvalidSettings(t *testing.T) {
	resetViper(t)
	viper.Set("months_forward", 0)

	var out bytes.Buffer
	if err := runBatch(testCommand(&out), nil); err == nil {
		t.Fatalf("expected validation error")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed before validation: %q", out.String())
	}
}

func TestApplyProfile(t *testing.T) {
	resetViper(t)
	origProfile := profile
	t.Cleanup(func() { profile = origProfile })

	viper.Set("profiles", map[string]any{
		"team": map[string]any{"subject": "team@example.com", "reminder_minutes": 45},
	})
	profile = "team"
	applyProfile()

	s := loadSettings(viper.GetViper())
	if s.Subject != "team@example.com" || s.ReminderMinutes != 45 {
		t.Fatalf("profile not applied: %+v", s)
	}
}

func TestParseServiceAccountJSON(t *testing.T) {
	info, err := parseServiceAccountJSON([]byte(`{"type":"service_account","client_email":" sa@proj.iam.gserviceaccount.com ","client_id":"123"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.ClientEmail != "sa@proj.iam.gserviceaccount.com" || info.ClientID != "123" {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := parseServiceAccountJSON([]byte(`{"type":"authorized_user"}`)); err == nil {
		t.Fatalf("expected error for wrong type")
	}
	if _, err := parseServiceAccountJSON([]byte(`{`)); err == nil {
		t.Fatalf("expected error for bad json")
	}
}

func TestConfigInit_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	var out bytes.Buffer
	c := testCommand(&out)
	c.Flags().Bool("force", false, "")
	if err := runConfigInit(c, []string{path}); err != nil {
		t.Fatalf("runConfigInit: %v", err)
	}
	if err := runConfigInit(c, []string{path}); err == nil {
		t.Fatalf("expected error when file exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Settings
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if got != starterSettings() {
		t.Fatalf("round trip = %+v, want %+v", got, starterSettings())
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("viper read: %v", err)
	}
	if loadSettings(v) != starterSettings() {
		t.Fatalf("viper load = %+v", loadSettings(v))
	}
}

func TestProfileSaveAndDefault(t *testing.T) {
	origCfg := cfgFile
	t.Cleanup(func() { cfgFile = origCfg })
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")

	if err := saveProfileToConfig("work", map[string]interface{}{"subject": "w@example.com"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := setDefaultProfileInConfig("work"); err != nil {
		t.Fatalf("default: %v", err)
	}

	config, err := readConfigFile()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if config["default_profile"] != "work" {
		t.Fatalf("default not saved: %#v", config)
	}
	profiles, _ := config["profiles"].(map[string]interface{})
	work, _ := profiles["work"].(map[string]interface{})
	if work["subject"] != "w@example.com" {
		t.Fatalf("profile not saved: %#v", config)
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
