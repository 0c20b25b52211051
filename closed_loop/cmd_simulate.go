package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/scaling"
)

var simulateFlags struct {
	scenario string
	output   string
	table    string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the controller against a kinematic vehicle model",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simulateFlags.scenario, "scenario", "s", "", "Scenario JSON file (required)")
	f.StringVarP(&simulateFlags.output, "output", "o", "", "CSV trace file, - for stdout, empty for none")
	f.StringVar(&simulateFlags.table, "table", "", "Override the scenario's rule table")
	_ = simulateCmd.MarkFlagRequired("scenario")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	scen, err := LoadScenario(simulateFlags.scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	if simulateFlags.table != "" {
		scen.Meta.Table = simulateFlags.table
	}

	doc, table, err := loadTable(scen.Meta.Table)
	if err != nil {
		return err
	}
	sio := SimIO{Distance: scaling.DistanceCM, Angle: scaling.AngleDeg, Steer: scaling.SteerDeg}
	if sio.DistanceSlot, err = inputSlot(doc, "distance"); err != nil {
		return err
	}
	if sio.AngleSlot, err = inputSlot(doc, "angle"); err != nil {
		return err
	}

	var (
		emit func(SimStep) error
		tw   *TraceWriter
	)
	if simulateFlags.output != "" {
		w, closeFn, err := createOutput(simulateFlags.output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		if tw, err = NewTraceWriter(w); err != nil {
			return err
		}
		emit = tw.Write
	}

	logger.Info("simulation started",
		zap.String("scenario", scen.Meta.Name),
		zap.String("table", doc.Name),
		zap.Float64("duration_s", scen.Timing.DurationS),
		zap.Float64("dt_s", scen.Timing.DtS),
		zap.Float64("distance_cm", scen.Initial.DistanceCM),
		zap.Float64("heading_deg", scen.Initial.HeadingDeg))

	sum, err := Simulate(&scen, fuzzy.NewController(table), sio, emit)
	if err != nil {
		return err
	}
	if tw != nil {
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	logger.Info("simulation finished",
		zap.Int("steps", sum.Steps),
		zap.Float64("final_distance_cm", sum.FinalDistanceCM),
		zap.Float64("final_heading_deg", sum.FinalHeadingDeg),
		zap.Float64("settled_max_distance_cm", sum.SettledMaxDistCM),
		zap.Float64("max_steer_deg", sum.MaxAbsSteerDeg),
		zap.Int("idle_steps", sum.IdleSteps))
	return nil
}
