package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/output"
)

// CheckSourceTool runs the configured modules over one source text.
type CheckSourceTool struct {
	engine *engine.Engine
}

func (t *CheckSourceTool) Definition() mcp.Tool {
	return mcp.NewTool("check_source",
		mcp.WithDescription(
			"Check one Java source file with the configured complexity metrics "+
				"and pattern rules. Returns one line per violation in the form "+
				"<path>:<line>:<col>: <message>, or a JSON document when format is json."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File name used in the report; its extension selects whether the file is checked."),
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Full text of the file."),
		),
		mcp.WithString("format",
			mcp.Description("Report format: 'plain' (default) or 'json'."),
			mcp.Enum("plain", "json"),
		),
	)
}

func (t *CheckSourceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := req.GetString("format", "plain")
	if format != "plain" && format != "json" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
	if !t.engine.Accepts(path) {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not a checked file type", path)), nil
	}

	found, err := t.engine.Process(ctx, path, source)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	out := &output.AnalysisOutput{Results: []engine.Result{{Path: path, Violations: found}}}

	f, err := output.NewFormatter(format)
	if err != nil {
		return nil, err
	}
	data, err := f.Format(out)
	if err != nil {
		return nil, err
	}
	if format == "plain" && len(data) == 0 {
		return mcp.NewToolResultText("No violations."), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ListModulesTool describes the configured module tree.
type ListModulesTool struct {
	engine *engine.Engine
}

func (t *ListModulesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_modules",
		mcp.WithDescription("List the configured checks and detectors with their paths, ids and severities."),
	)
}

func (t *ListModulesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(t.engine.Modules(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding modules: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
