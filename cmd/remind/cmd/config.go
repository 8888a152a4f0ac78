package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Long: `Print the settings a run would use after merging defaults, the config
file, REMIND_* environment variables, the active profile, and flags.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s := loadSettings(viper.GetViper())

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# from %s\n", used)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func starterSettings() Settings {
	return Settings{
		CredentialsFile:         defaultCredentialsFile,
		Subject:                 "user@example.com",
		ReminderMinutes:         defaultReminderMinutes,
		MonthsForward:           defaultMonthsForward,
		ReplaceDefaultReminders: true,
		OutputDir:               defaultOutputDir,
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if len(args) > 0 {
		path = expandPath(args[0])
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(starterSettings())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written to %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit subject and credentials_file, then run 'remind auth'.")
	return nil
}
