package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuzzy-steer-core/rulebase"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the embedded rule tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, name := range rulebase.List() {
			doc, err := rulebase.Load(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-12s inputs=%v memberships=%d rules=%d  %s\n",
				name, doc.Inputs, len(doc.Memberships), len(doc.Rules), doc.Description)
		}
		return nil
	},
}
