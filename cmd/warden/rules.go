package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/rules"
)

func newRulesCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	var category string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the registered modules and the rule pack entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			rs, err := s.loadRules()
			if err != nil {
				return err
			}
			if category != "" {
				rs = rules.ByCategory(rs, rules.RuleCategory(category))
			}
			modules := engine.DefaultRegistry().Names()

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Modules []string     `json:"modules"`
					Rules   []rules.Rule `json:"rules"`
				}{modules, rs})
			}

			fmt.Fprintf(w, "Modules: %s\n\n", strings.Join(modules, ", "))
			t := table.New().Headers("ID", "SEVERITY", "CATEGORY", "NAME")
			for _, r := range rs {
				t.Row(r.ID, r.Severity, string(r.Category), r.Name)
			}
			fmt.Fprintln(w, t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().StringVar(&category, "category", "", "Only list rules of this category")
	return cmd
}
