package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/review"
	"github.com/chris-regnier/warden/internal/sarif"
)

func newReviewCmd(g *globalOptions) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "review [sarif-file]",
		Short: "Triage a run's findings in an interactive terminal UI",
		Long: `Browse the findings of a stored run, or of a SARIF file, and accept or
reject each one. Decisions are saved under .warden/reviews/ when you quit
and restored the next time the same run is reviewed.`,
		Args: cobra.MaximumNArgs(1),
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

			var log *sarif.Log
			if len(args) == 1 {
				if log, err = loadSARIF(args[0]); err != nil {
					return fmt.Errorf("loading SARIF: %w", err)
				}
				runID = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			} else {
				st, closeStore, err := s.openStore()
				if err != nil {
					return err
				}
				defer closeStore()
				if runID == "" {
					if runID, err = s.latestRun(ctx, st); err != nil {
						return err
					}
				}
				if log, err = st.ReadSARIF(ctx, runID); err != nil {
					return fmt.Errorf("reading SARIF for %s: %w", runID, err)
				}
			}

			out := cmd.OutOrStdout()
			model := review.NewModel(log, review.Options{
				RunID:     runID,
				Root:      s.dir,
				StatePath: filepath.Join(s.dir, ".warden", "reviews", runID+".json"),
				Reviewer:  os.Getenv("USER"),
				NoColor:   os.Getenv("NO_COLOR") != "" || !isTerminal(out),
			})
			final, err := tea.NewProgram(*model,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(out),
			).Run()
			if err != nil {
				return fmt.Errorf("review UI: %w", err)
			}
			m := final.(review.Model)
			if err := m.SaveErr(); err != nil {
				return fmt.Errorf("saving review: %w", err)
			}
			accepted, rejected := m.Counts()
			fmt.Fprintf(out, "Run %s: %d accepted, %d rejected\n", runID, accepted, rejected)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id to review (default: most recent)")
	return cmd
}

func loadSARIF(path string) (*sarif.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log sarif.Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	return &log, nil
}
