package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/policy"
	"github.com/theakshaypant/remind/internal/runner"
)

const (
	defaultCredentialsFile = "calendar-reminder.json"
	defaultReminderMinutes = 120
	defaultMonthsForward   = 1
	defaultOutputDir       = "."

	calendarScopeHint = "https://www.googleapis.com/auth/calendar"
)

var nowFunc = time.Now

// settingKeys can be overridden by a profile.
var settingKeys = []string{
	"credentials_file",
	"subject",
	"reminder_minutes",
	"months_forward",
	"remove_existing_custom_reminders",
	"replace_default_reminders",
	"output_dir",
	"calendars",
	"verbose",
}

// Settings is the effective configuration of one run.
type Settings struct {
	CredentialsFile               string `yaml:"credentials_file"`
	Subject                       string `yaml:"subject"`
	ReminderMinutes               int    `yaml:"reminder_minutes"`
	MonthsForward                 int    `yaml:"months_forward"`
	RemoveExistingCustomReminders bool   `yaml:"remove_existing_custom_reminders"`
	ReplaceDefaultReminders       bool   `yaml:"replace_default_reminders"`
	OutputDir                     string `yaml:"output_dir"`
	Calendars                     string `yaml:"calendars,omitempty"`
	Verbose                       bool   `yaml:"verbose"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("credentials_file", defaultCredentialsFile)
	v.SetDefault("reminder_minutes", defaultReminderMinutes)
	v.SetDefault("months_forward", defaultMonthsForward)
	v.SetDefault("remove_existing_custom_reminders", false)
	v.SetDefault("replace_default_reminders", true)
	v.SetDefault("output_dir", defaultOutputDir)
}

func loadSettings(v *viper.Viper) Settings {
	return Settings{
		CredentialsFile:               v.GetString("credentials_file"),
		Subject:                       strings.TrimSpace(v.GetString("subject")),
		ReminderMinutes:               v.GetInt("reminder_minutes"),
		MonthsForward:                 v.GetInt("months_forward"),
		RemoveExistingCustomReminders: v.GetBool("remove_existing_custom_reminders"),
		ReplaceDefaultReminders:       v.GetBool("replace_default_reminders"),
		OutputDir:                     v.GetString("output_dir"),
		Calendars:                     v.GetString("calendars"),
		Verbose:                       v.GetBool("verbose"),
	}
}

// ValidateAuth checks what is needed to reach the calendar service.
func (s Settings) ValidateAuth() error {
	if s.CredentialsFile == "" {
		return errors.New("credentials_file not configured")
	}
	if s.Subject == "" {
		return errors.New("subject not configured\n\nSet the user to impersonate with --subject or REMIND_SUBJECT")
	}
	if !strings.Contains(s.Subject, "@") {
		return fmt.Errorf("subject must be an email address: %q", s.Subject)
	}
	return nil
}

// Validate checks the batch settings.
func (s Settings) Validate() error {
	if s.ReminderMinutes < 0 {
		return fmt.Errorf("reminder minutes must be >= 0, got %d", s.ReminderMinutes)
	}
	if s.MonthsForward < 1 {
		return fmt.Errorf("months forward must be >= 1, got %d", s.MonthsForward)
	}
	if s.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	return nil
}

// RunOptions converts settings into runner options anchored at now.
func (s Settings) RunOptions(now time.Time) runner.Options {
	opts := runner.Options{
		Policy: policy.Options{
			Minutes:              int64(s.ReminderMinutes),
			RemoveExistingCustom: s.RemoveExistingCustomReminders,
			ReplaceDefault:       s.ReplaceDefaultReminders,
		},
		Window:    core.ForwardWindow(now, s.MonthsForward),
		OutputDir: expandPath(s.OutputDir),
	}

	if s.Calendars != "" {
		opts.Calendars = strings.Split(s.Calendars, ",")
	}
	return opts
}
