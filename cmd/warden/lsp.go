package main

import (
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/lsp"
)

func newLSPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start warden in LSP mode to check documents as you edit them.

The server speaks LSP on stdin/stdout and publishes each open document's
violations as diagnostics. Logs go to stderr. The lsp section of
warden.yaml sets the debounce, parallelism and ignored paths.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			if err := s.validate(); err != nil {
				return err
			}
			eng, _, err := s.buildEngine(s.resultCache(), nil)
			if err != nil {
				return err
			}
			srv, err := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), eng,
				lsp.ServerConfigFromLSPConfig(s.cfg.LSP),
				lsp.WithLogger(s.logger), lsp.WithVersion(version))
			if err != nil {
				return err
			}
			s.logger.Info("lsp server starting", "dir", s.dir, "modules", len(eng.Modules()))
			return srv.Run(cmd.Context())
		},
	}
}
