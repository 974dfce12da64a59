package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/wire"
)

// haltTimeout bounds the stop issued after an interrupted motion command.
const haltTimeout = 5 * time.Second

var driveCmd = &cobra.Command{
	Use:   "drive [probe-id...]",
	Short: "Insert probes to their targets",
	Long: `Run the automatic insertion sequence. Each probe steps from the Dura
past its target and back until it rests at the target. Several probes drive
concurrently. Ctrl-C stops every probe that was driving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		serveMetrics(ctx)

		probeIDs, err := selectProbes(ctx, cmd, args, func(p *primary.Probe) bool { return p.Insertable })
		if err != nil {
			return err
		}
		targetID, _ := cmd.Flags().GetString("target")
		speed, past := motionFlags(cmd)

		adapter := wire.AutomationAdapter()
		return forEachProbe(ctx, probeIDs, func(ctx context.Context, probeID string) error {
			return adapter.Drive(ctx, primary.DriveRequest{
				ProbeID:           probeID,
				TargetID:          targetID,
				BaseSpeed:         speed,
				DrivePastDistance: past,
			})
		})
	},
}

var exitCmd = &cobra.Command{
	Use:   "exit [probe-id...]",
	Short: "Withdraw probes to their entry coordinates",
	Long: `Run the automatic exit sequence. Each probe steps out through the Dura
and the exit margin back to its entry coordinate. Ctrl-C stops every probe
that was exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		serveMetrics(ctx)

		probeIDs, err := selectProbes(ctx, cmd, args, func(p *primary.Probe) bool { return p.Exitable })
		if err != nil {
			return err
		}
		targetID, _ := cmd.Flags().GetString("target")
		speed, _ := motionFlags(cmd)

		adapter := wire.AutomationAdapter()
		return forEachProbe(ctx, probeIDs, func(ctx context.Context, probeID string) error {
			return adapter.Exit(ctx, primary.ExitRequest{
				ProbeID:   probeID,
				TargetID:  targetID,
				BaseSpeed: speed,
			})
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [probe-id...]",
	Short: "Halt probes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		probeIDs, err := selectProbes(ctx, cmd, args, func(*primary.Probe) bool { return true })
		if err != nil {
			return err
		}

		adapter := wire.AutomationAdapter()
		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		for _, id := range probeIDs {
			id := id
			g.Go(func() error { return adapter.Stop(gctx, id) })
		}
		return g.Wait()
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [probe-id]",
	Short: "Mark a probe as calibrated to its manipulator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.AutomationAdapter().Calibrate(ctx, args[0])
	},
}

var duraCmd = &cobra.Command{
	Use:   "dura [probe-id]",
	Short: "Record the probe tip as resting on the Dura",
	Long: `Record the current tip position as the Dura. When the probe sits at
its entry coordinate the automation advances to the Dura insert state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.AutomationAdapter().ResetDura(ctx, args[0])
	},
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Drive to or stop at a target's entry coordinate",
}

var entryDriveCmd = &cobra.Command{
	Use:   "drive [probe-id]",
	Short: "Move a calibrated probe to where its target trajectory enters the brain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		serveMetrics(ctx)

		targetID, _ := cmd.Flags().GetString("target")
		adapter := wire.AutomationAdapter()
		err := adapter.DriveToEntry(ctx, args[0], targetID)
		if ctx.Err() != nil {
			haltCtx, haltCancel := context.WithTimeout(context.WithoutCancel(ctx), haltTimeout)
			defer haltCancel()
			if stopErr := adapter.StopEntry(haltCtx, args[0]); stopErr != nil {
				fmt.Fprintln(os.Stderr, stopErr)
			}
		}
		return err
	},
}

var entryStopCmd = &cobra.Command{
	Use:   "stop [probe-id]",
	Short: "Halt an entry drive and return the probe to calibrated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.AutomationAdapter().StopEntry(ctx, args[0])
	},
}

var boundsCmd = &cobra.Command{
	Use:   "bounds [probe-id] [target-id]",
	Short: "Check whether a probe can reach a target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.AutomationAdapter().CheckBounds(ctx, args[0], args[1])
	},
}

var etaCmd = &cobra.Command{
	Use:   "eta [probe-id]",
	Short: "Estimate the remaining insertion time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		targetID, _ := cmd.Flags().GetString("target")
		speed, past := motionFlags(cmd)
		return wire.AutomationAdapter().ETA(ctx, primary.ETARequest{
			ProbeID:           args[0],
			TargetID:          targetID,
			BaseSpeed:         speed,
			DrivePastDistance: past,
		})
	},
}

// motionFlags returns --speed and --past, falling back to the panel defaults
// in the config.
func motionFlags(cmd *cobra.Command) (speed, past float64) {
	speed, _ = cmd.Flags().GetFloat64("speed")
	past, _ = cmd.Flags().GetFloat64("past")
	cfg := wire.Config()
	if speed <= 0 {
		speed = cfg.Panel.BaseSpeed
	}
	if past <= 0 {
		past = cfg.Panel.DrivePastDistance
	}
	return speed, past
}

// selectProbes returns the probe IDs given as arguments, or with --all every
// registered probe that eligible accepts.
func selectProbes(ctx context.Context, cmd *cobra.Command, args []string, eligible func(*primary.Probe) bool) ([]string, error) {
	all, _ := cmd.Flags().GetBool("all")
	if all && len(args) > 0 {
		return nil, fmt.Errorf("--all cannot be combined with probe IDs")
	}
	if !all {
		if len(args) == 0 {
			return nil, fmt.Errorf("at least one probe ID or --all is required")
		}
		return args, nil
	}

	probes, err := wire.ProbeService().ListProbes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}
	ids := eligibleProbeIDs(probes, eligible)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no eligible probes")
	}
	return ids, nil
}

func eligibleProbeIDs(probes []*primary.Probe, eligible func(*primary.Probe) bool) []string {
	var ids []string
	for _, p := range probes {
		if eligible(p) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// forEachProbe runs fn for every probe concurrently. A failing probe does not
// cancel the others. When ctx is cancelled every probe is stopped.
func forEachProbe(ctx context.Context, probeIDs []string, fn func(ctx context.Context, probeID string) error) error {
	var g errgroup.Group
	for _, id := range probeIDs {
		id := id
		g.Go(func() error { return fn(ctx, id) })
	}
	err := g.Wait()

	if ctx.Err() != nil {
		haltCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), haltTimeout)
		defer cancel()
		adapter := wire.AutomationAdapter()
		for _, id := range probeIDs {
			if stopErr := adapter.Stop(haltCtx, id); stopErr != nil {
				fmt.Fprintln(os.Stderr, stopErr)
			}
		}
	}
	return err
}

func addMotionFlags(cmd *cobra.Command, withPast bool) {
	cmd.Flags().StringP("target", "t", "", "Target ID (default: the probe's selected target)")
	cmd.Flags().Float64("speed", 0, "Base speed in mm/s (default from config)")
	if withPast {
		cmd.Flags().Float64("past", 0, "Drive-past distance in mm (default from config)")
	}
}

func init() {
	addMotionFlags(driveCmd, true)
	driveCmd.Flags().Bool("all", false, "Drive every insertable probe")

	addMotionFlags(exitCmd, false)
	exitCmd.Flags().Bool("all", false, "Exit every exitable probe")

	stopCmd.Flags().Bool("all", false, "Stop every registered probe")

	addMotionFlags(etaCmd, true)

	entryDriveCmd.Flags().StringP("target", "t", "", "Target ID (default: the probe's selected target)")
	entryCmd.AddCommand(entryDriveCmd)
	entryCmd.AddCommand(entryStopCmd)
}

// DriveCmd returns the drive command
func DriveCmd() *cobra.Command { return driveCmd }

// ExitCmd returns the exit command
func ExitCmd() *cobra.Command { return exitCmd }

// StopCmd returns the stop command
func StopCmd() *cobra.Command { return stopCmd }

// CalibrateCmd returns the calibrate command
func CalibrateCmd() *cobra.Command { return calibrateCmd }

// DuraCmd returns the dura command
func DuraCmd() *cobra.Command { return duraCmd }

// EntryCmd returns the entry command
func EntryCmd() *cobra.Command { return entryCmd }

// BoundsCmd returns the bounds command
func BoundsCmd() *cobra.Command { return boundsCmd }

// EtaCmd returns the eta command
func EtaCmd() *cobra.Command { return etaCmd }
