package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/wire"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage planned target insertions",
}

var targetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Plan a target insertion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		name, _ := cmd.Flags().GetString("name")
		ap, _ := cmd.Flags().GetFloat64("ap")
		ml, _ := cmd.Flags().GetFloat64("ml")
		dv, _ := cmd.Flags().GetFloat64("dv")

		_, err := wire.ProbeAdapter().CreateTarget(ctx, name, models.Insertion{
			APMLDV: models.Vector3{X: ap, Y: ml, Z: dv},
			Angles: anglesFromFlags(cmd.Flags()),
		})
		return err
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List planned targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().ListTargets(ctx)
	},
}

var targetShowCmd = &cobra.Command{
	Use:   "show [target-id]",
	Short: "Show target details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().ShowTarget(ctx, args[0])
	},
}

var targetDeleteCmd = &cobra.Command{
	Use:   "delete [target-id]",
	Short: "Delete a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return wire.ProbeAdapter().DeleteTarget(ctx, args[0])
	},
}

func init() {
	// target create flags
	targetCreateCmd.Flags().StringP("name", "n", "", "Target name")
	targetCreateCmd.Flags().Float64("ap", 0, "AP coordinate (mm)")
	targetCreateCmd.Flags().Float64("ml", 0, "ML coordinate (mm)")
	targetCreateCmd.Flags().Float64("dv", 0, "DV coordinate (mm)")
	targetCreateCmd.MarkFlagsRequiredTogether("ap", "ml", "dv")
	addAngleFlags(targetCreateCmd)

	// Register subcommands
	targetCmd.AddCommand(targetCreateCmd)
	targetCmd.AddCommand(targetListCmd)
	targetCmd.AddCommand(targetShowCmd)
	targetCmd.AddCommand(targetDeleteCmd)
}

// TargetCmd returns the target command
func TargetCmd() *cobra.Command {
	return targetCmd
}
