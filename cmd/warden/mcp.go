package main

import (
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/mcpserver"
)

func newMCPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the check_source tool over MCP on stdio",
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
			return mcpserver.ServeStdio(eng, version)
		},
	}
}
