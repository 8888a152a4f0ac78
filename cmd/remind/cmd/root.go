package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theakshaypant/remind/internal/adapter/google"
	"github.com/theakshaypant/remind/internal/core"
	"github.com/theakshaypant/remind/internal/runlog"
	"github.com/theakshaypant/remind/internal/runner"
)

// CalendarAdapter extends core.Provider with login.
type CalendarAdapter interface {
	core.Provider
	Login(ctx context.Context) error
}

var (
	cfgFile string
	profile string
	adapter CalendarAdapter

	// newAdapter is swapped out in tests.
	newAdapter = func(credsFile, subject string) CalendarAdapter {
		return google.NewGoogleAdapter(credsFile, subject)
	}
)

var rootCmd = &cobra.Command{
	Use:   "remind",
	Short: "Add a popup reminder to every upcoming event on your calendars",
	Long: `remind walks every calendar the impersonated user owns and makes sure each
event in the coming months has a popup reminder of the configured length.

Events that already have the reminder, or that keep inheriting calendar
defaults, are left alone. Every event ends up in updated_events.json or
skipped_events.json.

Authentication uses a service account key with domain-wide delegation.`,
	SilenceUsage:      true,
	PersistentPreRunE: initAdapter,
	RunE:              runBatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/remind/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile to use (e.g., work, personal)")

	rootCmd.PersistentFlags().String("credentials-file", "", "Service account JSON key file")
	rootCmd.PersistentFlags().String("subject", "", "User to impersonate (Workspace email)")
	rootCmd.PersistentFlags().StringP("calendars", "c", "", "Comma-separated list of calendar IDs or names to process")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug diagnostics to stderr")

	rootCmd.Flags().Int("minutes", defaultReminderMinutes, "Popup reminder length in minutes")
	rootCmd.Flags().IntP("months", "m", defaultMonthsForward, "Months ahead to process (30 days each)")
	rootCmd.Flags().Bool("remove-custom", false, "Drop existing custom reminders before adding the popup")
	rootCmd.Flags().Bool("replace-default", true, "Turn default reminders into explicit ones plus the popup")
	rootCmd.Flags().StringP("output-dir", "o", "", "Directory for updated_events.json and skipped_events.json")

	bindFlags()
}

// bindFlags maps flags to viper keys.
func bindFlags() {
	viper.BindPFlag("credentials_file", rootCmd.PersistentFlags().Lookup("credentials-file"))
	viper.BindPFlag("subject", rootCmd.PersistentFlags().Lookup("subject"))
	viper.BindPFlag("calendars", rootCmd.PersistentFlags().Lookup("calendars"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("reminder_minutes", rootCmd.Flags().Lookup("minutes"))
	viper.BindPFlag("months_forward", rootCmd.Flags().Lookup("months"))
	viper.BindPFlag("remove_existing_custom_reminders", rootCmd.Flags().Lookup("remove-custom"))
	viper.BindPFlag("replace_default_reminders", rootCmd.Flags().Lookup("replace-default"))
	viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))
}

// flagNames maps viper keys to flag names where they differ from the
// underscore-to-dash rule.
var flagNames = map[string]string{
	"reminder_minutes":                 "minutes",
	"months_forward":                   "months",
	"remove_existing_custom_reminders": "remove-custom",
	"replace_default_reminders":        "replace-default",
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "remind")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("REMIND")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Apply profile settings if specified
	applyProfile()
}

// applyProfile merges profile-specific settings over defaults
func applyProfile() {
	// Check for profile from flag or env var
	activeProfile := profile
	if activeProfile == "" {
		activeProfile = viper.GetString("default_profile")
	}
	if activeProfile == "" {
		return
	}

	profileKey := "profiles." + activeProfile
	if !viper.IsSet(profileKey) {
		fmt.Fprintf(os.Stderr, "Warning: profile '%s' not found in config\n", activeProfile)
		return
	}

	fmt.Fprintf(os.Stderr, "Using profile: %s\n", activeProfile)

	// Override each setting if present in profile,
	// but only if the user hasn't explicitly set it via CLI flag.
	for _, key := range settingKeys {
		profileSettingKey := profileKey + "." + key
		if viper.IsSet(profileSettingKey) && !isFlagExplicitlySet(key) {
			viper.Set(key, viper.Get(profileSettingKey))
		}
	}
}

func isFlagExplicitlySet(viperKey string) bool {
	flagName, ok := flagNames[viperKey]
	if !ok {
		flagName = strings.ReplaceAll(viperKey, "_", "-")
	}

	f := rootCmd.Flags().Lookup(flagName)
	if f == nil {
		f = rootCmd.PersistentFlags().Lookup(flagName)
	}

	return f != nil && f.Changed
}

func initAdapter(cmd *cobra.Command, args []string) error {
	setupLogging(viper.GetBool("verbose"))

	// Skip adapter init for commands that don't need it
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "profile" || cmd.Name() == "config" ||
		cmd.Parent() != nil && (cmd.Parent().Name() == "profile" || cmd.Parent().Name() == "config") {
		return nil
	}

	s := loadSettings(viper.GetViper())
	if err := s.ValidateAuth(); err != nil {
		return err
	}

	credsFile := expandPath(s.CredentialsFile)
	if _, err := os.Stat(credsFile); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nCreate a service account key with domain-wide delegation for %s", credsFile, calendarScopeHint)
	}

	adapter = newAdapter(credsFile, s.Subject)
	if err := adapter.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	s := loadSettings(viper.GetViper())
	if err := s.Validate(); err != nil {
		return err
	}

	console := runlog.NewConsole(cmd.OutOrStdout())
	console.Banner(int64(s.ReminderMinutes), s.MonthsForward, s.RemoveExistingCustomReminders, s.ReplaceDefaultReminders)

	r := runner.New(adapter, runlog.New(console))
	sum, err := r.Run(cmd.Context(), s.RunOptions(nowFunc()))
	if err != nil {
		return err
	}

	slog.Debug("run finished",
		"calendars", sum.Calendars,
		"failedCalendars", sum.FailedCalendars,
		"updated", sum.Updated,
		"skipped", sum.Skipped,
	)
	return nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
