package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuzzy-steer-core/fuzzy"
)

var benchFlags struct {
	table string
	n     int
	seed  uint64
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure per-cycle evaluation latency over random inputs",
	RunE:  runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.table, "table", defaultTable, "Embedded table name or YAML path")
	f.IntVarP(&benchFlags.n, "count", "n", 1_000_000, "Evaluations to record")
	f.Uint64Var(&benchFlags.seed, "seed", 1, "Input stream seed")
}

// BenchResult summarises evaluation latency in nanoseconds.
type BenchResult struct {
	Count    int64
	Overflow int64 // samples above the histogram range
	Mean     float64
	P50      int64
	P90      int64
	P99      int64
	Max      int64
	Checksum int64 // sum of crisp outputs
}

func runBench(cmd *cobra.Command, _ []string) error {
	doc, table, err := loadTable(benchFlags.table)
	if err != nil {
		return err
	}
	logger.Info("bench started", zap.String("table", doc.Name), zap.Int("count", benchFlags.n))

	res := bench(table, benchFlags.n, benchFlags.seed)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "table=%s evaluations=%d overflow=%d checksum=%d\n", doc.Name, res.Count, res.Overflow, res.Checksum)
	fmt.Fprintf(out, "mean=%.1fns p50=%dns p90=%dns p99=%dns max=%dns\n", res.Mean, res.P50, res.P90, res.P99, res.Max)
	return nil
}

func bench(t *fuzzy.Table, n int, seed uint64) BenchResult {
	hg := hdrhistogram.New(1, int64(10*time.Millisecond), 3)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	scratch := t.NewScratch()
	in := make([]int8, t.NumInputs())

	var res BenchResult
	for range n {
		for i := range in {
			in[i] = int8(rng.IntN(255) - 127)
		}
		start := time.Now()
		crisp := t.Evaluate(in, scratch)
		elapsed := time.Since(start).Nanoseconds()
		res.Checksum += int64(crisp)
		if err := hg.RecordValue(max(elapsed, 1)); err != nil {
			res.Overflow++
		}
	}

	res.Count = hg.TotalCount()
	res.Mean = hg.Mean()
	res.P50 = hg.ValueAtQuantile(50)
	res.P90 = hg.ValueAtQuantile(90)
	res.P99 = hg.ValueAtQuantile(99)
	res.Max = hg.Max()
	return res
}
