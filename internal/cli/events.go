package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/wire"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the automation event log",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		probeID, _ := cmd.Flags().GetString("probe")
		kind, _ := cmd.Flags().GetString("kind")
		phase, _ := cmd.Flags().GetString("phase")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.EventAdapter().Tail(ctx, primary.EventFilters{
			ProbeID: probeID,
			Kind:    kind,
			Phase:   phase,
			Limit:   limit,
		})
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show [event-id]",
	Short: "Show a single event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.EventAdapter().Show(ctx, args[0])
	},
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		days, _ := cmd.Flags().GetInt("older-than")
		return wire.EventAdapter().Prune(ctx, days)
	},
}

func init() {
	// events tail flags
	eventsTailCmd.Flags().StringP("probe", "p", "", "Filter by probe ID")
	eventsTailCmd.Flags().StringP("kind", "k", "", "Filter by kind (step|stop|calibration|error)")
	eventsTailCmd.Flags().String("phase", "", "Filter by phase")
	eventsTailCmd.Flags().IntP("limit", "l", 50, "Maximum number of events")

	// events prune flags
	eventsPruneCmd.Flags().Int("older-than", 30, "Delete events older than this many days")

	eventsCmd.AddCommand(eventsTailCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsPruneCmd)
}

// EventsCmd returns the events command
func EventsCmd() *cobra.Command {
	return eventsCmd
}
