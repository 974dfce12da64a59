package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/wire"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Manage manipulator-driven probes",
	Long:  "Register probes on manipulators, set their angles and aim them at targets",
}

var probeRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Attach a probe to a manipulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		manipulatorID, _ := cmd.Flags().GetString("manipulator")
		name, _ := cmd.Flags().GetString("name")
		rightHanded, _ := cmd.Flags().GetBool("right-handed")
		if !cmd.Flags().Changed("right-handed") {
			rightHanded = wire.Config().IsRightHanded(manipulatorID)
		}

		_, err := wire.ProbeAdapter().Register(ctx, primary.RegisterProbeRequest{
			Name:          name,
			ManipulatorID: manipulatorID,
			Angles:        anglesFromFlags(cmd.Flags()),
			RightHanded:   rightHanded,
		})
		return err
	},
}

var probeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered probes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().List(ctx)
	},
}

var probeShowCmd = &cobra.Command{
	Use:   "show [probe-id]",
	Short: "Show probe details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		_, err := wire.ProbeAdapter().Show(ctx, args[0])
		return err
	},
}

var probeUnregisterCmd = &cobra.Command{
	Use:   "unregister [probe-id]",
	Short: "Detach a probe from its manipulator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().Unregister(ctx, args[0])
	},
}

var probeAnglesCmd = &cobra.Command{
	Use:   "angles [probe-id]",
	Short: "Set the yaw/pitch/roll of the mounted probe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().SetAngles(ctx, args[0], anglesFromFlags(cmd.Flags()))
	},
}

var probeSelectCmd = &cobra.Command{
	Use:   "select [probe-id] [target-id]",
	Short: "Aim a probe at a target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().Select(ctx, args[0], args[1])
	},
}

var probeReferenceCmd = &cobra.Command{
	Use:   "reference-offset [probe-id]",
	Short: "Set the manipulator zero coordinate",
	Long: `Set the manipulator position that corresponds to AP/ML/DV zero.
Axes that are not given keep their current value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset := offsetFromFlags(cmd.Flags())
		if math.IsNaN(offset.X) && math.IsNaN(offset.Y) && math.IsNaN(offset.Z) && math.IsNaN(offset.W) {
			return fmt.Errorf("at least one axis flag is required")
		}

		ctx, cancel := commandContext()
		defer cancel()
		return wire.AutomationAdapter().SetReferenceOffset(ctx, args[0], offset)
	},
}

// anglesFromFlags reads --yaw, --pitch and --roll.
func anglesFromFlags(flags *pflag.FlagSet) models.Angles {
	yaw, _ := flags.GetFloat64("yaw")
	pitch, _ := flags.GetFloat64("pitch")
	roll, _ := flags.GetFloat64("roll")
	return models.Angles{Yaw: yaw, Pitch: pitch, Roll: roll}
}

// offsetFromFlags reads --x, --y, --z and --w. Axes whose flag was not given
// are NaN.
func offsetFromFlags(flags *pflag.FlagSet) models.Vector4 {
	axis := func(name string) float64 {
		if !flags.Changed(name) {
			return math.NaN()
		}
		v, _ := flags.GetFloat64(name)
		return v
	}
	return models.Vector4{X: axis("x"), Y: axis("y"), Z: axis("z"), W: axis("w")}
}

func addAngleFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("yaw", 0, "Yaw in degrees")
	cmd.Flags().Float64("pitch", 90, "Pitch in degrees (90 is straight down)")
	cmd.Flags().Float64("roll", 0, "Roll in degrees")
}

func init() {
	// probe register flags
	probeRegisterCmd.Flags().StringP("manipulator", "m", "", "Manipulator ID (required)")
	probeRegisterCmd.Flags().StringP("name", "n", "", "Probe name")
	probeRegisterCmd.Flags().Bool("right-handed", false, "Manipulator is mounted right-handed (default from config)")
	_ = probeRegisterCmd.MarkFlagRequired("manipulator")
	addAngleFlags(probeRegisterCmd)

	addAngleFlags(probeAnglesCmd)

	// probe reference-offset flags
	for _, axis := range []string{"x", "y", "z", "w"} {
		probeReferenceCmd.Flags().Float64(axis, 0, fmt.Sprintf("Zero coordinate on the %s axis (mm)", axis))
	}

	// Register subcommands
	probeCmd.AddCommand(probeRegisterCmd)
	probeCmd.AddCommand(probeListCmd)
	probeCmd.AddCommand(probeShowCmd)
	probeCmd.AddCommand(probeUnregisterCmd)
	probeCmd.AddCommand(probeAnglesCmd)
	probeCmd.AddCommand(probeSelectCmd)
	probeCmd.AddCommand(probeReferenceCmd)
}

// ProbeCmd returns the probe command
func ProbeCmd() *cobra.Command {
	return probeCmd
}
