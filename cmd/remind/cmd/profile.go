package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage configuration profiles for different users and reminder policies.

Profiles allow you to quickly switch between impersonated users, service
account keys, and reminder settings.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a profile's settings",
	Long: `Edit a profile's settings using flags.

Example:
  remind profile edit work --minutes=60 --replace-default=false
  remind profile edit team --subject=team@example.com --months=3`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

// profileFlag maps a profile setting to its flag.
type profileFlag struct {
	key   string
	flag  string
	usage string
	kind  string // string, int or bool
}

var profileFlags = []profileFlag{
	{key: "credentials_file", flag: "credentials-file", usage: "Path to service account key", kind: "string"},
	{key: "subject", flag: "subject", usage: "User to impersonate", kind: "string"},
	{key: "reminder_minutes", flag: "minutes", usage: "Popup reminder length in minutes", kind: "int"},
	{key: "months_forward", flag: "months", usage: "Months ahead to process", kind: "int"},
	{key: "remove_existing_custom_reminders", flag: "remove-custom", usage: "Drop existing custom reminders", kind: "bool"},
	{key: "replace_default_reminders", flag: "replace-default", usage: "Replace default reminders", kind: "bool"},
	{key: "output_dir", flag: "output-dir", usage: "Directory for the JSON logs", kind: "string"},
	{key: "calendars", flag: "calendars", usage: "Calendar filter", kind: "string"},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
	profileCmd.AddCommand(profileEditCmd)

	for _, fs := range []*pflag.FlagSet{profileAddCmd.Flags(), profileEditCmd.Flags()} {
		for _, pf := range profileFlags {
			switch pf.kind {
			case "int":
				fs.Int(pf.flag, 0, pf.usage)
			case "bool":
				fs.Bool(pf.flag, false, pf.usage)
			default:
				fs.String(pf.flag, "", pf.usage)
			}
		}
	}
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles := viper.GetStringMap("profiles")
	defaultProfile := viper.GetString("default_profile")
	out := cmd.OutOrStdout()

	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles configured.")
		fmt.Fprintln(out, "\nAdd one with: remind profile add <name> --subject=<email> --credentials-file=<path>")
		return nil
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Available profiles:")
	fmt.Fprintln(out, "─────────────────────────────────────────────────")

	for _, name := range names {
		marker := "  "
		if name == defaultProfile {
			marker = "* "
		}
		fmt.Fprintf(out, "%s%s\n", marker, name)
	}

	fmt.Fprintln(out, "─────────────────────────────────────────────────")
	if defaultProfile != "" {
		fmt.Fprintf(out, "Default: %s\n", defaultProfile)
	}
	fmt.Fprintln(out, "\nUse 'remind profile show <name>' for details")

	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	var profileName string
	if len(args) > 0 {
		profileName = args[0]
	} else {
		profileName = viper.GetString("default_profile")
		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}
	}

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	settings := viper.GetStringMap(profileKey)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Profile: %s\n", profileName)
	if profileName == viper.GetString("default_profile") {
		fmt.Fprintln(out, "(default)")
	}
	fmt.Fprintln(out, "─────────────────────────────────────────────────")

	fmt.Fprintln(out, "\n📁 Authentication:")
	printSetting(cmd, settings, "credentials_file", "credentials-file")
	printSetting(cmd, settings, "subject", "subject")

	fmt.Fprintln(out, "\n🔔 Reminders:")
	printSetting(cmd, settings, "reminder_minutes", "minutes")
	printSetting(cmd, settings, "remove_existing_custom_reminders", "remove-custom")
	printSetting(cmd, settings, "replace_default_reminders", "replace-default")

	fmt.Fprintln(out, "\n📅 Scope:")
	printSetting(cmd, settings, "months_forward", "months")
	printSetting(cmd, settings, "calendars", "calendars")
	printSetting(cmd, settings, "output_dir", "output-dir")

	fmt.Fprintln(out)
	return nil
}

func printSetting(cmd *cobra.Command, settings map[string]interface{}, key, displayKey string) {
	if val, ok := settings[key]; ok {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", displayKey, val)
	}
}

// changedProfileSettings collects the profile flags the user set.
func changedProfileSettings(fs *pflag.FlagSet, into map[string]interface{}) bool {
	changed := false
	for _, pf := range profileFlags {
		if !fs.Changed(pf.flag) {
			continue
		}
		switch pf.kind {
		case "int":
			into[pf.key], _ = fs.GetInt(pf.flag)
		case "bool":
			into[pf.key], _ = fs.GetBool(pf.flag)
		default:
			into[pf.key], _ = fs.GetString(pf.flag)
		}
		changed = true
	}
	return changed
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' already exists. Use 'remind profile edit %s' to modify it", profileName, profileName)
	}

	profile := make(map[string]interface{})
	changedProfileSettings(cmd.Flags(), profile)

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Profile '%s' created\n", profileName)
	fmt.Fprintf(out, "\nUse it with: remind -p %s\n", profileName)
	fmt.Fprintf(out, "Set as default: remind profile default %s\n", profileName)

	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found", profileName)
	}

	if err := setDefaultProfileInConfig(profileName); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Default profile set to '%s'\n", profileName)
	return nil
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	profileName := args[0]

	profileKey := "profiles." + profileName
	if !viper.IsSet(profileKey) {
		return fmt.Errorf("profile '%s' not found. Use 'remind profile add %s' to create it", profileName, profileName)
	}

	profile := make(map[string]interface{})
	for k, v := range viper.GetStringMap(profileKey) {
		profile[k] = v
	}

	if !changedProfileSettings(cmd.Flags(), profile) {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes specified. Use flags to update settings:")
		fmt.Fprintln(cmd.OutOrStdout(), "  remind profile edit", profileName, "--minutes=60 --replace-default=false")
		return nil
	}

	if err := saveProfileToConfig(profileName, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile '%s' updated\n", profileName)
	return nil
}

// Config file manipulation functions

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "remind", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func saveProfileToConfig(name string, profile map[string]interface{}) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	profiles, ok := config["profiles"].(map[string]interface{})
	if !ok {
		profiles = make(map[string]interface{})
	}

	profiles[name] = profile
	config["profiles"] = profiles

	return writeConfigFile(config)
}

func setDefaultProfileInConfig(name string) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}

	config["default_profile"] = name

	return writeConfigFile(config)
}
