package fuzzy

import (
	"errors"
	"fmt"
)

var (
	ErrNoInputs         = errors.New("table has no inputs")
	ErrNoBindings       = errors.New("table has no membership bindings")
	ErrNoRules          = errors.New("table has no rules")
	ErrInputRange       = errors.New("binding input out of range")
	ErrUnknownShape     = errors.New("unknown membership shape")
	ErrUnknownOp        = errors.New("unknown rule operator")
	ErrOperandRange     = errors.New("rule operand out of range")
	ErrForwardReference = errors.New("rule operand is not evaluated before the rule")
)

// ConfigError locates a table configuration fault.
type ConfigError struct {
	Kind  string // "binding" or "rule"
	Index int
	Name  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %d (%s): %v", e.Kind, e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Table is a validated, immutable inference topology. It holds no per-cycle
// state and may be shared by any number of goroutines, each evaluating with
// its own Scratch.
type Table struct {
	numInputs int
	bindings  []Binding
	rules     []Rule
	resolved  []rule
}

// NewTable validates bindings and rules and copies them into a Table.
// Every rule operand must refer to a binding or to a strictly earlier rule.
func NewTable(numInputs int, bindings []Binding, rules []Rule) (*Table, error) {
	if numInputs <= 0 {
		return nil, ErrNoInputs
	}
	if len(bindings) == 0 {
		return nil, ErrNoBindings
	}
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	for i, b := range bindings {
		if b.Input < 0 || b.Input >= numInputs {
			return nil, &ConfigError{Kind: "binding", Index: i, Name: b.Name,
				Err: fmt.Errorf("%w: input %d, have %d", ErrInputRange, b.Input, numInputs)}
		}
		if !b.Membership.Shape.Valid() {
			return nil, &ConfigError{Kind: "binding", Index: i, Name: b.Name,
				Err: fmt.Errorf("%w: %v", ErrUnknownShape, b.Membership.Shape)}
		}
	}

	nb := len(bindings)
	resolved := make([]rule, len(rules))
	for i, r := range rules {
		if !r.Op.Valid() {
			return nil, &ConfigError{Kind: "rule", Index: i, Name: r.Name,
				Err: fmt.Errorf("%w: %v", ErrUnknownOp, r.Op)}
		}
		a, err := resolve(r.A, i, nb)
		if err != nil {
			return nil, &ConfigError{Kind: "rule", Index: i, Name: r.Name, Err: fmt.Errorf("operand a: %w", err)}
		}
		b := a
		if r.Op.UsesB() {
			b, err = resolve(r.B, i, nb)
			if err != nil {
				return nil, &ConfigError{Kind: "rule", Index: i, Name: r.Name, Err: fmt.Errorf("operand b: %w", err)}
			}
		}
		resolved[i] = rule{
			op:       r.Op,
			a:        a,
			b:        b,
			terminal: r.Terminal,
			output:   int32(r.Output),
		}
	}

	return &Table{
		numInputs: numInputs,
		bindings:  append([]Binding(nil), bindings...),
		rules:     append([]Rule(nil), rules...),
		resolved:  resolved,
	}, nil
}

// resolve maps ref, read by rule at position pos, to a degree buffer offset.
func resolve(ref Ref, pos, nb int) (int, error) {
	if !ref.Rule {
		if ref.Index < 0 || ref.Index >= nb {
			return 0, fmt.Errorf("%w: %v, have %d bindings", ErrOperandRange, ref, nb)
		}
		return ref.Index, nil
	}
	if ref.Index < 0 {
		return 0, fmt.Errorf("%w: %v", ErrOperandRange, ref)
	}
	if ref.Index >= pos {
		return 0, fmt.Errorf("%w: %v read by rule[%d]", ErrForwardReference, ref, pos)
	}
	return nb + ref.Index, nil
}

// NumInputs returns the number of input slots the table reads.
func (t *Table) NumInputs() int { return t.numInputs }

// Bindings returns a copy of the binding sequence.
func (t *Table) Bindings() []Binding { return append([]Binding(nil), t.bindings...) }

// Rules returns a copy of the rule sequence.
func (t *Table) Rules() []Rule { return append([]Rule(nil), t.rules...) }

// Evaluate runs one full inference over in, using s for the degrees. It
// panics if in is shorter than NumInputs or s belongs to another table.
func (t *Table) Evaluate(in []int8, s *Scratch) int8 {
	if len(in) < t.numInputs {
		panic(fmt.Sprintf("fuzzy: %d inputs, table needs %d", len(in), t.numInputs))
	}
	if len(s.deg) != len(t.bindings)+len(t.resolved) {
		panic("fuzzy: scratch does not match table")
	}
	fuzzify(t.bindings, in, s.deg)
	s.weighted, s.weights = evaluate(t.resolved, s.deg, len(t.bindings))
	s.crisp = Defuzzify(s.weighted, s.weights)
	return s.crisp
}

// NewScratch allocates the per-call degree buffer for t.
func (t *Table) NewScratch() *Scratch {
	return &Scratch{
		deg: make([]uint8, len(t.bindings)+len(t.resolved)),
		nb:  len(t.bindings),
	}
}
