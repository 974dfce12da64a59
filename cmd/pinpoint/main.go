package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/pinpoint/internal/cli"
	"github.com/example/pinpoint/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pinpoint",
		Short:   "pinpoint - automated probe insertion for manipulator rigs",
		Version: version.String(),
		Long: `pinpoint drives manipulator-mounted probes through calibration,
insertion to a planned target and exit, either automatically or step by step
from the drive panel.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  cli.Setup,
		PersistentPostRunE: cli.Teardown,
	}
	cli.AddGlobalFlags(rootCmd)

	// Registration
	rootCmd.AddCommand(cli.ProbeCmd())
	rootCmd.AddCommand(cli.TargetCmd())

	// Calibration
	rootCmd.AddCommand(cli.CalibrateCmd())
	rootCmd.AddCommand(cli.DuraCmd())
	rootCmd.AddCommand(cli.EntryCmd())
	rootCmd.AddCommand(cli.BoundsCmd())

	// Automation
	rootCmd.AddCommand(cli.DriveCmd())
	rootCmd.AddCommand(cli.ExitCmd())
	rootCmd.AddCommand(cli.StopCmd())
	rootCmd.AddCommand(cli.EtaCmd())
	rootCmd.AddCommand(cli.PanelCmd())

	rootCmd.AddCommand(cli.EventsCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
