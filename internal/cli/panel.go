package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/wire"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Manual drive panel",
	Long: `Step a probe through the drive panel's own insertion stages.
Illegal presses are reported and logged, not treated as command failures.`,
}

func panelRequest(cmd *cobra.Command, probeID string) primary.PanelRequest {
	targetID, _ := cmd.Flags().GetString("target")
	speed, _ := cmd.Flags().GetFloat64("speed")
	past, _ := cmd.Flags().GetFloat64("past")
	return primary.PanelRequest{
		ProbeID:           probeID,
		TargetID:          targetID,
		BaseSpeed:         speed,
		DrivePastDistance: past,
	}
}

var panelDriveCmd = &cobra.Command{
	Use:   "drive [probe-id]",
	Short: "Drive the panel to the target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		serveMetrics(ctx)
		return wire.PanelAdapter().Drive(ctx, panelRequest(cmd, args[0]))
	},
}

var panelExitCmd = &cobra.Command{
	Use:   "exit [probe-id]",
	Short: "Drive the panel out of the brain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		serveMetrics(ctx)
		return wire.PanelAdapter().Exit(ctx, panelRequest(cmd, args[0]))
	},
}

var panelStopCmd = &cobra.Command{
	Use:   "stop [probe-id]",
	Short: "Halt the manipulator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.PanelAdapter().Stop(ctx, args[0])
	},
}

var panelResetCmd = &cobra.Command{
	Use:   "reset [probe-id]",
	Short: "Anchor the panel at the Dura",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.PanelAdapter().Reset(ctx, args[0])
	},
}

var panelStatusCmd = &cobra.Command{
	Use:   "status [probe-id]",
	Short: "Show the panel of a probe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.PanelAdapter().Status(ctx, args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{panelDriveCmd, panelExitCmd} {
		c.Flags().StringP("target", "t", "", "Target ID (default: the probe's selected target)")
		c.Flags().Float64("speed", 0, "Base speed in mm/s (default: the panel's saved speed)")
		c.Flags().Float64("past", 0, "Drive-past distance in mm (default: the panel's saved distance)")
	}

	panelCmd.AddCommand(panelDriveCmd)
	panelCmd.AddCommand(panelExitCmd)
	panelCmd.AddCommand(panelStopCmd)
	panelCmd.AddCommand(panelResetCmd)
	panelCmd.AddCommand(panelStatusCmd)
}

// PanelCmd returns the panel command
func PanelCmd() *cobra.Command {
	return panelCmd
}
