package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runFlags struct {
	configPath string
	iface      string
	metrics    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the steering loop over SocketCAN until interrupted",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.configPath, "config", "c", "", "Runner TOML config (built-in defaults when empty)")
	f.StringVar(&runFlags.iface, "iface", "", "Override the SocketCAN interface")
	f.StringVar(&runFlags.metrics, "metrics", "", "Override the metrics listen address")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := DefaultRunnerConfig()
	if runFlags.configPath != "" {
		var err error
		if cfg, err = LoadConfig(runFlags.configPath); err != nil {
			return err
		}
	}
	if runFlags.iface != "" {
		cfg.Interface = runFlags.iface
	}
	if runFlags.metrics != "" {
		cfg.MetricsAddress = runFlags.metrics
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	runner, err := NewRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}
