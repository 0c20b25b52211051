package fuzzy

import "fmt"

// Op is a fuzzy operator combining two degrees.
type Op uint8

const (
	And   Op = iota // min(a, b)
	Or              // max(a, b)
	Not             // 255 - a
	Imp             // a -> b, bounded ratio b*255/a
	A               // a
	B               // b
	False           // 0

	numOps
)

var opNames = [numOps]string{
	And:   "and",
	Or:    "or",
	Not:   "not",
	Imp:   "imp",
	A:     "a",
	B:     "b",
	False: "false",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Valid reports whether o is a known operator.
func (o Op) Valid() bool { return o < numOps }

// UsesB reports whether the second operand of o has to reference a valid
// degree. Not and False ignore it.
func (o Op) UsesB() bool {
	return o.Valid() && o != Not && o != False
}

// ParseOp maps an operator name as printed by String back to an Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// Apply combines degrees a and b. Unknown operators yield None.
func Apply(op Op, a, b uint8) uint8 {
	switch op {
	case And:
		return min(a, b)
	case Or:
		return max(a, b)
	case Not:
		return Full - a
	case Imp:
		if a == 0 {
			return Full
		}
		return clampDegree(int(b) * 255 / int(a))
	case A:
		return a
	case B:
		return b
	default:
		return None
	}
}

// Ref addresses a degree computed earlier in the same cycle: the output of
// a membership binding or of a rule.
type Ref struct {
	Rule  bool
	Index int
}

// BindingRef refers to the degree of binding i.
func BindingRef(i int) Ref { return Ref{Index: i} }

// RuleRef refers to the degree of rule i.
func RuleRef(i int) Ref { return Ref{Rule: true, Index: i} }

func (r Ref) String() string {
	if r.Rule {
		return fmt.Sprintf("rule[%d]", r.Index)
	}
	return fmt.Sprintf("binding[%d]", r.Index)
}

// Rule combines two earlier degrees. Terminal rules vote for Output with
// their degree as weight; the rest only feed later rules.
type Rule struct {
	Name     string
	Op       Op
	A, B     Ref
	Terminal bool
	Output   int8
}

// Binding applies a membership function to one input slot.
type Binding struct {
	Name       string
	Input      int
	Membership Membership
}

// rule is the resolved form of Rule: operands are offsets into the degree
// buffer, which holds binding degrees followed by rule degrees.
type rule struct {
	op       Op
	a, b     int
	terminal bool
	output   int32
}

// fuzzify writes one degree per binding into deg.
func fuzzify(bindings []Binding, in []int8, deg []uint8) {
	for i := range bindings {
		b := &bindings[i]
		deg[i] = b.Membership.Degree(in[b.Input])
	}
}

// evaluate runs the rules in order, storing each degree after the binding
// degrees, and returns the centroid numerator and denominator over the
// terminal rules.
func evaluate(rules []rule, deg []uint8, nb int) (weighted, weights int64) {
	for i := range rules {
		r := &rules[i]
		alpha := Apply(r.op, deg[r.a], deg[r.b])
		deg[nb+i] = alpha
		if r.terminal {
			weighted += int64(alpha) * int64(r.output)
			weights += int64(alpha)
		}
	}
	return weighted, weights
}
