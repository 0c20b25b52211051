// Package rulebase loads fuzzy rule tables from YAML. Bindings and rules
// are named; operands refer to them by name and are resolved into indices
// of the engine table.
package rulebase

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"fuzzy-steer-core/fuzzy"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// Doc is the YAML form of a rule table.
type Doc struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Inputs      []string     `yaml:"inputs"`
	Memberships []Membership `yaml:"memberships"`
	Rules       []Rule       `yaml:"rules"`
}

// Membership binds a shape to a named input.
type Membership struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Shape  string `yaml:"shape"`
	Params []int  `yaml:"params,flow"`
}

// Rule combines operands A and B, each the name of a membership or of an
// earlier rule.
type Rule struct {
	Name     string `yaml:"name"`
	A        string `yaml:"a"`
	Op       string `yaml:"op"`
	B        string `yaml:"b,omitempty"`
	Terminal bool   `yaml:"terminal,omitempty"`
	Output   int    `yaml:"output,omitempty"`
}

// List returns the names of the embedded tables, sorted.
func List() []string {
	entries, _ := tableFS.ReadDir("tables")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// Load reads an embedded table by name.
func Load(name string) (*Doc, error) {
	data, err := tableFS.ReadFile("tables/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("table %q not found (available: %s): %w",
			name, strings.Join(List(), ", "), err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse table %q: %w", name, err)
	}
	return d, nil
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Open treats ref as a file path when it has a YAML extension or names an
// existing file, and as an embedded table name otherwise.
func Open(ref string) (*Doc, error) {
	ext := filepath.Ext(ref)
	if ext == ".yaml" || ext == ".yml" {
		return LoadFile(ref)
	}
	if _, err := os.Stat(ref); err == nil {
		return LoadFile(ref)
	}
	return Load(ref)
}

// Parse decodes a table document. Unknown keys are rejected.
func Parse(data []byte) (*Doc, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Doc
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// InputIndex returns the slot of the named input.
func (d *Doc) InputIndex(name string) (int, bool) {
	for i, n := range d.Inputs {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Build resolves names and validates the table. Ordering faults, such as a
// rule reading a rule declared after it, are reported by fuzzy.NewTable.
func (d *Doc) Build() (*fuzzy.Table, error) {
	bindings, rules, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	t, err := fuzzy.NewTable(len(d.Inputs), bindings, rules)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", d.Name, err)
	}
	return t, nil
}

// Resolve converts the document into engine bindings and rules without
// checking evaluation order.
func (d *Doc) Resolve() ([]fuzzy.Binding, []fuzzy.Rule, error) {
	seen := make(map[string]struct{}, len(d.Inputs))
	for _, in := range d.Inputs {
		if _, dup := seen[in]; dup {
			return nil, nil, fmt.Errorf("table %s: duplicate input %q", d.Name, in)
		}
		seen[in] = struct{}{}
	}

	refs := make(map[string]fuzzy.Ref, len(d.Memberships)+len(d.Rules))
	define := func(name string, ref fuzzy.Ref) error {
		if name == "" {
			return nil
		}
		if _, dup := refs[name]; dup {
			return fmt.Errorf("table %s: duplicate name %q", d.Name, name)
		}
		refs[name] = ref
		return nil
	}

	bindings := make([]fuzzy.Binding, len(d.Memberships))
	for i, m := range d.Memberships {
		b, err := d.binding(m)
		if err != nil {
			return nil, nil, fmt.Errorf("table %s: membership %d (%s): %w", d.Name, i, m.Name, err)
		}
		bindings[i] = b
		if err := define(m.Name, fuzzy.BindingRef(i)); err != nil {
			return nil, nil, err
		}
	}
	// Rules are registered up front so that a rule naming a later rule
	// resolves and is then rejected as a forward reference.
	for i, r := range d.Rules {
		if err := define(r.Name, fuzzy.RuleRef(i)); err != nil {
			return nil, nil, err
		}
	}

	lookup := func(name string) (fuzzy.Ref, error) {
		ref, ok := refs[name]
		if !ok {
			return fuzzy.Ref{}, fmt.Errorf("unknown operand %q", name)
		}
		return ref, nil
	}

	rules := make([]fuzzy.Rule, len(d.Rules))
	for i, r := range d.Rules {
		rule, err := resolveRule(r, lookup)
		if err != nil {
			return nil, nil, fmt.Errorf("table %s: rule %d (%s): %w", d.Name, i, r.Name, err)
		}
		rules[i] = rule
	}
	return bindings, rules, nil
}

func (d *Doc) binding(m Membership) (fuzzy.Binding, error) {
	in, ok := d.InputIndex(m.Input)
	if !ok {
		return fuzzy.Binding{}, fmt.Errorf("%w: %q", fuzzy.ErrInputRange, m.Input)
	}
	shape, err := fuzzy.ParseShape(m.Shape)
	if err != nil {
		return fuzzy.Binding{}, err
	}
	if len(m.Params) > 3 {
		return fuzzy.Binding{}, fmt.Errorf("%d params, at most 3 allowed", len(m.Params))
	}
	var p [3]int8
	for i, v := range m.Params {
		if p[i], err = toInt8(v); err != nil {
			return fuzzy.Binding{}, fmt.Errorf("param %d: %w", i+1, err)
		}
	}
	return fuzzy.Binding{
		Name:       m.Name,
		Input:      in,
		Membership: fuzzy.Membership{Shape: shape, P1: p[0], P2: p[1], P3: p[2]},
	}, nil
}

func resolveRule(r Rule, lookup func(string) (fuzzy.Ref, error)) (fuzzy.Rule, error) {
	op, err := fuzzy.ParseOp(r.Op)
	if err != nil {
		return fuzzy.Rule{}, err
	}
	a, err := lookup(r.A)
	if err != nil {
		return fuzzy.Rule{}, fmt.Errorf("operand a: %w", err)
	}
	b := a
	switch {
	case r.B != "":
		if b, err = lookup(r.B); err != nil {
			return fuzzy.Rule{}, fmt.Errorf("operand b: %w", err)
		}
	case op.UsesB() && op != fuzzy.A:
		return fuzzy.Rule{}, fmt.Errorf("operand b: required by %v", op)
	}
	out, err := toInt8(r.Output)
	if err != nil {
		return fuzzy.Rule{}, fmt.Errorf("output: %w", err)
	}
	return fuzzy.Rule{
		Name:     r.Name,
		Op:       op,
		A:        a,
		B:        b,
		Terminal: r.Terminal,
		Output:   out,
	}, nil
}

var errRange = errors.New("value outside signed 8-bit range")

func toInt8(v int) (int8, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, fmt.Errorf("%w: %d", errRange, v)
	}
	return int8(v), nil
}
