package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errCheckFailed makes the process exit 1 without printing anything more:
// the report already says why.
var errCheckFailed = errors.New("check failed")

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "warden",
		Short:         "Complexity metrics and pattern rules for Java sources",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Project directory holding .warden/")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "Log nothing")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log progress")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log debugging detail")

	root.AddCommand(
		newCheckCmd(g),
		newJudgeCmd(g),
		newRunsCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
		newLSPCmd(g),
		newReviewCmd(g),
		newRulesCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "warden %s\n", version)
			fmt.Fprintf(w, "  commit: %s\n", commit)
			fmt.Fprintf(w, "  built at: %s\n", date)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
