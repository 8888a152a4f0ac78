package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Check the service account key and impersonation",
	Long: `Check that the service account key can act as the configured subject.

  1. Reads and validates the service account JSON key
  2. Impersonates the subject through domain-wide delegation
  3. Lists the calendars the subject owns

The service account's client ID must be allowed the
` + calendarScopeHint + ` scope in the Workspace admin console.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

type serviceAccountInfo struct {
	ClientEmail string
	ClientID    string
}

func parseServiceAccountJSON(data []byte) (serviceAccountInfo, error) {
	var saJSON map[string]any
	if err := json.Unmarshal(data, &saJSON); err != nil {
		return serviceAccountInfo{}, fmt.Errorf("invalid service account JSON: %w", err)
	}
	if saJSON["type"] != "service_account" {
		return serviceAccountInfo{}, fmt.Errorf("invalid service account JSON: expected type=service_account")
	}

	info := serviceAccountInfo{}
	if v, ok := saJSON["client_email"].(string); ok {
		info.ClientEmail = strings.TrimSpace(v)
	}
	if v, ok := saJSON["client_id"].(string); ok {
		info.ClientID = strings.TrimSpace(v)
	}
	return info, nil
}

func runAuth(cmd *cobra.Command, _ []string) error {
	s := loadSettings(viper.GetViper())

	data, err := os.ReadFile(expandPath(s.CredentialsFile))
	if err != nil {
		return fmt.Errorf("unable to read credentials file: %w", err)
	}
	info, err := parseServiceAccountJSON(data)
	if err != nil {
		return err
	}

	calendars, err := adapter.OwnedCalendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("impersonation check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n✅ Authentication successful!")
	fmt.Fprintf(out, "🤖 Service account: %s\n", info.ClientEmail)
	if info.ClientID != "" {
		fmt.Fprintf(out, "🆔 Client ID:       %s\n", info.ClientID)
	}
	fmt.Fprintf(out, "👤 Acting as:       %s\n", s.Subject)
	fmt.Fprintf(out, "📅 Owned calendars: %d\n", len(calendars))
	fmt.Fprintln(out, "\nYou can now run 'remind' to update reminders.")

	return nil
}
