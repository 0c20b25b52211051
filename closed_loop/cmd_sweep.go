package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuzzy-steer-core/scaling"
	"fuzzy-steer-core/sweep"
)

var sweepFlags struct {
	table    string
	output   string
	workers  int
	colInput string
	colMin   int
	colMax   int
	colCount int
	colScale string
	rowInput string
	rowMin   int
	rowMax   int
	rowCount int
	rowScale string
	outScale string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate a table over a grid of physical inputs and write the surface",
	Long: "Sweep writes a tab-separated grid: a header of column input values, then one\n" +
		"line per row input value followed by the scaled outputs.",
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepFlags.table, "table", defaultTable, "Embedded table name or YAML path")
	f.StringVarP(&sweepFlags.output, "output", "o", "output_int.txt", "Output file, - for stdout")
	f.IntVar(&sweepFlags.workers, "workers", 0, "Parallel rows (0 = GOMAXPROCS)")
	f.StringVar(&sweepFlags.colInput, "col-input", "distance", "Input swept along columns")
	f.IntVar(&sweepFlags.colMin, "col-min", -250, "First column value")
	f.IntVar(&sweepFlags.colMax, "col-max", 250, "Last column value")
	f.IntVar(&sweepFlags.colCount, "col-count", 50, "Column steps")
	f.StringVar(&sweepFlags.colScale, "col-scale", "1/2", "Column input scale num/den")
	f.StringVar(&sweepFlags.rowInput, "row-input", "angle", "Input swept along rows")
	f.IntVar(&sweepFlags.rowMin, "row-min", -30, "First row value")
	f.IntVar(&sweepFlags.rowMax, "row-max", 30, "Last row value")
	f.IntVar(&sweepFlags.rowCount, "row-count", 60, "Row steps")
	f.StringVar(&sweepFlags.rowScale, "row-scale", "1/1", "Row input scale num/den")
	f.StringVar(&sweepFlags.outScale, "out-scale", "1/1", "Output scale num/den")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	doc, table, err := loadTable(sweepFlags.table)
	if err != nil {
		return err
	}
	g := sweep.Grid{
		Col:     sweep.Axis{Min: sweepFlags.colMin, Max: sweepFlags.colMax, Count: sweepFlags.colCount},
		Row:     sweep.Axis{Min: sweepFlags.rowMin, Max: sweepFlags.rowMax, Count: sweepFlags.rowCount},
		Workers: sweepFlags.workers,
	}
	if g.ColInput, err = inputSlot(doc, sweepFlags.colInput); err != nil {
		return err
	}
	if g.RowInput, err = inputSlot(doc, sweepFlags.rowInput); err != nil {
		return err
	}
	if g.Col.Scale.Num, g.Col.Scale.Den, err = parseRatio(sweepFlags.colScale); err != nil {
		return err
	}
	if g.Row.Scale.Num, g.Row.Scale.Den, err = parseRatio(sweepFlags.rowScale); err != nil {
		return err
	}
	var out scaling.Output
	if out.Num, out.Den, err = parseRatio(sweepFlags.outScale); err != nil {
		return err
	}
	g.Out = out

	logger.Info("sweep started", zap.String("table", doc.Name),
		zap.Int("cols", g.Col.Count+1), zap.Int("rows", g.Row.Count+1))
	surface, err := sweep.Run(cmd.Context(), table, g)
	if err != nil {
		return err
	}

	w, closeFn, err := createOutput(sweepFlags.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := surface.WriteTSV(w); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	logger.Info("sweep finished", zap.String("output", sweepFlags.output))
	return nil
}
