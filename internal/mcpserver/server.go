// Package mcpserver exposes the check engine as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chris-regnier/warden/internal/engine"
)

const serverName = "warden"

// Tool is one MCP tool: its schema and the handler behind it.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns every tool served for eng.
func Tools(eng *engine.Engine) []Tool {
	return []Tool{
		&CheckSourceTool{engine: eng},
		&ListModulesTool{engine: eng},
	}
}

// New builds an MCP server carrying the warden tools.
func New(eng *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range Tools(eng) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// ServeStdio serves the tools on stdin and stdout until the client
// disconnects.
func ServeStdio(eng *engine.Engine, version string) error {
	return server.ServeStdio(New(eng, version))
}
