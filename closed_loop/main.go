// closed_loop drives the fuzzy steering controller on a CAN bus, against a
// simulated vehicle, or offline over a grid of inputs.
//
// Usage:
//
//	closed_loop run [--config config/runner.toml] [--iface vcan0]
//	closed_loop simulate --scenario config/scenarios/s_curve_drift.json [-o trace.csv]
//	closed_loop sweep [--table line_follow] [-o output_int.txt]
//	closed_loop shapes --shape trapezoid --params -15,10,40
//	closed_loop bench [--table line_follow] [-n 1000000]
//	closed_loop tables
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuzzy-steer-core/utils"
)

var rootFlags struct {
	logLevel string
	logFile  string
}

// logger is set up by the root command before any subcommand runs.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:          "closed_loop",
	Short:        "Fixed-point fuzzy steering controller",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		l, err := utils.NewLogger(rootFlags.logFile, utils.ParseLevel(rootFlags.logLevel), true)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log", "info", "trace|debug|info|warn|error|critical")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Append JSON logs to this file as well as the console")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(shapesCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(tablesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
