package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/rulebase"
)

// loadTable opens an embedded table name or a YAML path and builds it.
func loadTable(ref string) (*rulebase.Doc, *fuzzy.Table, error) {
	doc, err := rulebase.Open(ref)
	if err != nil {
		return nil, nil, err
	}
	t, err := doc.Build()
	if err != nil {
		return nil, nil, err
	}
	return doc, t, nil
}

// inputSlot resolves an input name, or a numeric slot, against doc.
func inputSlot(doc *rulebase.Doc, name string) (int, error) {
	if i, ok := doc.InputIndex(name); ok {
		return i, nil
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(doc.Inputs) {
		return i, nil
	}
	return 0, fmt.Errorf("table %s has no input %q (inputs: %s)", doc.Name, name, strings.Join(doc.Inputs, ", "))
}

// parseRatio reads "num/den" or a bare integer.
func parseRatio(s string) (num, den int, err error) {
	n, d, found := strings.Cut(s, "/")
	if num, err = strconv.Atoi(strings.TrimSpace(n)); err != nil {
		return 0, 0, fmt.Errorf("ratio %q: %w", s, err)
	}
	den = 1
	if found {
		if den, err = strconv.Atoi(strings.TrimSpace(d)); err != nil {
			return 0, 0, fmt.Errorf("ratio %q: %w", s, err)
		}
		if den == 0 {
			return 0, 0, fmt.Errorf("ratio %q: zero denominator", s)
		}
	}
	return num, den, nil
}

// createOutput opens path for writing; "-" or "" is w.
func createOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
