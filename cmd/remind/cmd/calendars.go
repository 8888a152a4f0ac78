package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theakshaypant/remind/internal/runner"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List calendars the batch would process",
	Long:    `List the calendars the impersonated user owns. Shared, subscribed, and read-only calendars are never processed and are not shown.`,
	RunE:    runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, args []string) error {
	calendars, err := adapter.OwnedCalendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}

	if opts := loadSettings(viper.GetViper()).RunOptions(nowFunc()); len(opts.Calendars) > 0 {
		calendars = runner.FilterCalendars(calendars, opts.Calendars)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "📅 Owned calendars:")
	fmt.Fprintln(out, "─────────────────────────────────────────────────")

	for _, cal := range calendars {
		fmt.Fprintf(out, "\n  • %s\n", cal.Name)
		fmt.Fprintf(out, "    ID: %s\n", cal.ID)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d calendars\n", len(calendars))
	fmt.Fprintln(out, "\nTip: Use 'remind -c \"calendar name\"' to process only some of them")

	return nil
}
