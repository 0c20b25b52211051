package fuzzy

// Scratch holds the degrees and centroid sums of one evaluation. Reusing a
// Scratch across cycles allocates nothing; every cycle overwrites it.
type Scratch struct {
	deg      []uint8
	nb       int
	weighted int64
	weights  int64
	crisp    int8
}

// BindingDegrees returns the binding degrees of the last evaluation. The
// slice aliases the scratch buffer.
func (s *Scratch) BindingDegrees() []uint8 { return s.deg[:s.nb] }

// RuleDegrees returns the rule degrees of the last evaluation. The slice
// aliases the scratch buffer.
func (s *Scratch) RuleDegrees() []uint8 { return s.deg[s.nb:] }

// Diagnostics is a snapshot of one evaluation for logging.
type Diagnostics struct {
	WeightedSum int64
	WeightSum   int64
	Crisp       int8
	Fired       int // terminal rules with a nonzero degree
}

// Controller owns a table, its input array and its degrees. It is the
// per-cycle entry point of the engine and must not be stepped from more
// than one goroutine at a time.
type Controller struct {
	table   *Table
	in      []int8
	scratch *Scratch
}

// NewController creates a controller with all inputs at zero.
func NewController(t *Table) *Controller {
	return &Controller{
		table:   t,
		in:      make([]int8, t.NumInputs()),
		scratch: t.NewScratch(),
	}
}

// Table returns the topology the controller evaluates.
func (c *Controller) Table() *Table { return c.table }

// SetInput stores the scaled value of input slot i. Out-of-range slots are
// ignored.
func (c *Controller) SetInput(i int, v int8) {
	if i >= 0 && i < len(c.in) {
		c.in[i] = v
	}
}

// Inputs returns the input array. Writes through it are seen by the next Step.
func (c *Controller) Inputs() []int8 { return c.in }

// Step runs fuzzification, rule evaluation and defuzzification over the
// current inputs and returns the crisp output.
func (c *Controller) Step() int8 {
	return c.table.Evaluate(c.in, c.scratch)
}

// Reset zeroes the inputs and the degrees of the last cycle.
func (c *Controller) Reset() {
	clear(c.in)
	clear(c.scratch.deg)
	c.scratch.weighted, c.scratch.weights, c.scratch.crisp = 0, 0, 0
}

// BindingDegrees returns a copy of the binding degrees of the last Step.
func (c *Controller) BindingDegrees() []uint8 {
	return append([]uint8(nil), c.scratch.BindingDegrees()...)
}

// RuleDegrees returns a copy of the rule degrees of the last Step.
func (c *Controller) RuleDegrees() []uint8 {
	return append([]uint8(nil), c.scratch.RuleDegrees()...)
}

// GetDiagnostics returns the centroid sums and output of the last Step.
func (c *Controller) GetDiagnostics() Diagnostics {
	d := Diagnostics{
		WeightedSum: c.scratch.weighted,
		WeightSum:   c.scratch.weights,
		Crisp:       c.scratch.crisp,
	}
	rd := c.scratch.RuleDegrees()
	for i, r := range c.table.resolved {
		if r.terminal && rd[i] != 0 {
			d.Fired++
		}
	}
	return d
}
