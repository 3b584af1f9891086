package lsp

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// workspaceToken identifies progress reports for warden.checkWorkspace.
const workspaceToken = "warden-check-workspace"

// CommandResult represents the result of executing a command
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// CommandHandler handles workspace/executeCommand requests
type CommandHandler struct {
	server *Server
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(server *Server) *CommandHandler {
	return &CommandHandler{server: server}
}

// Execute runs one command. Bad arguments come back as an unsuccessful
// result; only an unknown command is an error.
func (h *CommandHandler) Execute(ctx context.Context, params ExecuteCommandParams) (any, error) {
	switch params.Command {
	case CommandCheckFile:
		return h.checkFile(ctx, params.Arguments), nil
	case CommandCheckWorkspace:
		return h.checkWorkspace(ctx), nil
	case CommandListModules:
		return &CommandResult{Success: true, Data: h.server.checker.Modules()}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// checkFile checks one open document now, skipping the debounce.
func (h *CommandHandler) checkFile(ctx context.Context, args []any) *CommandResult {
	if len(args) < 1 {
		return &CommandResult{Message: "file URI argument required"}
	}
	uri, ok := args[0].(string)
	if !ok {
		return &CommandResult{Message: "file URI must be a string"}
	}
	if !h.isOpen(uri) {
		return &CommandResult{Message: fmt.Sprintf("document not open: %s", uri)}
	}
	h.server.watcher.Forget(uri)
	h.server.checkAndPublish(ctx, uri)
	return &CommandResult{Success: true, Message: fmt.Sprintf("Checked %s", uri)}
}

// checkWorkspace checks every open document in URI order, reporting
// progress as it goes.
func (h *CommandHandler) checkWorkspace(ctx context.Context) *CommandResult {
	s := h.server
	s.docMu.RLock()
	uris := slices.Sorted(maps.Keys(s.docs))
	s.docMu.RUnlock()
	if len(uris) == 0 {
		return &CommandResult{Success: true, Message: "No documents open to check"}
	}

	if err := s.progress.Begin(workspaceToken, "Checking open documents"); err != nil {
		s.logger.Debug("progress unavailable", "error", err)
	}
	for i, uri := range uris {
		if ctx.Err() != nil {
			break
		}
		s.watcher.Forget(uri)
		s.checkAndPublish(ctx, uri)
		_ = s.progress.Report(workspaceToken, fmt.Sprintf("Checked %d/%d files", i+1, len(uris)), i+1, len(uris))
	}
	msg := fmt.Sprintf("Checked %d files", len(uris))
	_ = s.progress.End(workspaceToken, msg)
	return &CommandResult{Success: true, Message: msg}
}

func (h *CommandHandler) isOpen(uri string) bool {
	h.server.docMu.RLock()
	defer h.server.docMu.RUnlock()
	_, ok := h.server.docs[uri]
	return ok
}
