// Package sweep drives a rule table over a two-dimensional grid of physical
// inputs and writes the resulting control surface.
package sweep

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/scaling"
)

// Axis is a sampled input range: Min + k*step for k = 0..Count, with
// step = (Max-Min)/Count.
type Axis struct {
	Min   int           `toml:"min"`
	Max   int           `toml:"max"`
	Count int           `toml:"count"`
	Scale scaling.Input `toml:"scale"`
}

// Values returns the sample points of a.
func (a Axis) Values() []int {
	if a.Count <= 0 {
		return []int{a.Min}
	}
	step := (a.Max - a.Min) / a.Count
	out := make([]int, a.Count+1)
	for k := range out {
		out[k] = a.Min + k*step
	}
	return out
}

// Grid describes a sweep. Columns feed input slot Col.Input and rows feed
// Row.Input; the remaining inputs stay at zero.
type Grid struct {
	Col      Axis
	ColInput int
	Row      Axis
	RowInput int
	Out      scaling.Output
	Workers  int
}

// Surface is the result of a sweep.
type Surface struct {
	Cols   []int
	Rows   []int
	Values [][]int16 // [row][col]
}

// Run evaluates t at every grid point. Rows are spread over Workers
// goroutines sharing t, each with its own scratch.
func Run(ctx context.Context, t *fuzzy.Table, g Grid) (*Surface, error) {
	if g.ColInput < 0 || g.ColInput >= t.NumInputs() || g.RowInput < 0 || g.RowInput >= t.NumInputs() {
		return nil, fmt.Errorf("sweep inputs %d/%d outside table inputs [0,%d)", g.ColInput, g.RowInput, t.NumInputs())
	}
	s := &Surface{Cols: g.Col.Values(), Rows: g.Row.Values()}
	s.Values = make([][]int16, len(s.Rows))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for r := range s.Rows {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scratch := t.NewScratch()
			in := make([]int8, t.NumInputs())
			in[g.RowInput] = g.Row.Scale.ScaleInt(int64(s.Rows[r]))
			row := make([]int16, len(s.Cols))
			for c, v := range s.Cols {
				in[g.ColInput] = g.Col.Scale.ScaleInt(int64(v))
				row[c] = g.Out.Scale(t.Evaluate(in, scratch))
			}
			s.Values[r] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteTSV writes the surface as a tab-separated table: a header of column
// values, then one line per row value followed by its outputs. Every field
// is terminated by a tab.
func (s *Surface) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("\t")
	for _, c := range s.Cols {
		fmt.Fprintf(bw, "%d\t", c)
	}
	bw.WriteString("\n")
	for r, rv := range s.Rows {
		fmt.Fprintf(bw, "%d\t", rv)
		for _, v := range s.Values[r] {
			fmt.Fprintf(bw, "%d\t", v)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// At returns the output at the given row and column values.
func (s *Surface) At(row, col int) (int16, bool) {
	for r, rv := range s.Rows {
		if rv != row {
			continue
		}
		for c, cv := range s.Cols {
			if cv == col {
				return s.Values[r][c], true
			}
		}
	}
	return 0, false
}
