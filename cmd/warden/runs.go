package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/store"
)

func newRunsCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs and their verdicts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			if err := s.validate(); err != nil {
				return err
			}
			st, closeStore, err := s.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			ids, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if limit > 0 && len(ids) > limit {
				ids = ids[:limit]
			}

			t := table.New().Headers("RUN", "RESULTS", "DECISION")
			counts := make(map[string]int)
			for _, id := range ids {
				doc, err := st.ReadSARIF(ctx, id)
				if err != nil {
					return fmt.Errorf("reading run %s: %w", id, err)
				}
				decision := "-"
				v, err := st.ReadVerdict(ctx, id)
				switch {
				case err == nil:
					decision = v.Decision
				case !errors.Is(err, store.ErrNotFound):
					return fmt.Errorf("reading verdict of %s: %w", id, err)
				}
				counts[decision]++
				t.Row(id, fmt.Sprint(len(doc.Results())), decision)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, t.Render())

			decisions := make([]string, 0, len(counts))
			for d := range counts {
				decisions = append(decisions, d)
			}
			sort.Strings(decisions)
			for _, d := range decisions {
				fmt.Fprintf(w, "%s: %d\n", d, counts[d])
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 for all)")
	return cmd
}
