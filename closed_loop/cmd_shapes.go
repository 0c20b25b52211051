package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"fuzzy-steer-core/fuzzy"
)

var shapesFlags struct {
	shape   string
	params  []int
	table   string
	binding string
}

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "Print a membership function over the whole input range",
	Long: "Shapes prints \"in\\tout\" and then the degree of one membership function for\n" +
		"every input from -127 to 127. Give either --shape and --params, or --table\n" +
		"and --binding to dump a binding of a rule table.",
	RunE: runShapes,
}

func init() {
	f := shapesCmd.Flags()
	f.StringVar(&shapesFlags.shape, "shape", "", "cubic|triangle|asym_triangle|boxcar|trapezoid|low|high")
	f.IntSliceVar(&shapesFlags.params, "params", nil, "Up to three shape parameters")
	f.StringVar(&shapesFlags.table, "table", "", "Embedded table name or YAML path")
	f.StringVar(&shapesFlags.binding, "binding", "", "Binding name within --table")
	shapesCmd.MarkFlagsMutuallyExclusive("shape", "table")
	shapesCmd.MarkFlagsRequiredTogether("table", "binding")
}

func runShapes(cmd *cobra.Command, _ []string) error {
	m, title, err := shapeFromFlags()
	if err != nil {
		return err
	}
	logger.Sugar().Infof("membership %s", title)

	w := bufio.NewWriter(cmd.OutOrStdout())
	fmt.Fprint(w, "in\tout\n")
	for x := -127; x <= 127; x++ {
		fmt.Fprintf(w, "%d\t%d\n", x, m.Degree(int8(x)))
	}
	return w.Flush()
}

func shapeFromFlags() (fuzzy.Membership, string, error) {
	if shapesFlags.table != "" {
		doc, table, err := loadTable(shapesFlags.table)
		if err != nil {
			return fuzzy.Membership{}, "", err
		}
		for _, b := range table.Bindings() {
			if b.Name == shapesFlags.binding {
				m := b.Membership
				return m, fmt.Sprintf("%s.%s %v(%d, %d, %d)", doc.Name, b.Name, m.Shape, m.P1, m.P2, m.P3), nil
			}
		}
		return fuzzy.Membership{}, "", fmt.Errorf("table %s has no binding %q", doc.Name, shapesFlags.binding)
	}

	if shapesFlags.shape == "" {
		return fuzzy.Membership{}, "", fmt.Errorf("one of --shape or --table is required")
	}
	shape, err := fuzzy.ParseShape(shapesFlags.shape)
	if err != nil {
		return fuzzy.Membership{}, "", err
	}
	if len(shapesFlags.params) > 3 {
		return fuzzy.Membership{}, "", fmt.Errorf("%d params, at most 3 allowed", len(shapesFlags.params))
	}
	var p [3]int8
	for i, v := range shapesFlags.params {
		if v < -128 || v > 127 {
			return fuzzy.Membership{}, "", fmt.Errorf("param %d: %d outside signed 8-bit range", i+1, v)
		}
		p[i] = int8(v)
	}
	m := fuzzy.Membership{Shape: shape, P1: p[0], P2: p[1], P3: p[2]}
	return m, fmt.Sprintf("%v(%d, %d, %d)", shape, p[0], p[1], p[2]), nil
}
