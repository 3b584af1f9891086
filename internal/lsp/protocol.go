// Package lsp serves warden's checks to editors over the Language Server
// Protocol. Open documents are checked after a quiet period and their
// violations published as diagnostics.
package lsp

import "encoding/json"

// LSP method names
const (
	MethodInitialize                     = "initialize"
	MethodInitialized                    = "initialized"
	MethodShutdown                       = "shutdown"
	MethodExit                           = "exit"
	MethodTextDocumentDidOpen            = "textDocument/didOpen"
	MethodTextDocumentDidChange          = "textDocument/didChange"
	MethodTextDocumentDidClose           = "textDocument/didClose"
	MethodTextDocumentDidSave            = "textDocument/didSave"
	MethodTextDocumentPublishDiagnostics = "textDocument/publishDiagnostics"
	MethodWorkspaceExecuteCommand        = "workspace/executeCommand"
	MethodWorkspaceDidChangeConfig       = "workspace/didChangeConfiguration"
	MethodWindowWorkDoneProgressCreate   = "window/workDoneProgress/create"
	MethodProgress                       = "$/progress"
)

// Commands the server answers on workspace/executeCommand.
const (
	CommandCheckFile      = "warden.checkFile"
	CommandCheckWorkspace = "warden.checkWorkspace"
	CommandListModules    = "warden.listModules"
)

// JSON-RPC error codes
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// textDocumentSyncFull asks the client to send the whole document on change.
const textDocumentSyncFull = 1

// jsonRPCMessage is a JSON-RPC 2.0 request, response or notification.
type jsonRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// InitializeParams represents the parameters for the initialize request
type InitializeParams struct {
	ProcessID             *int        `json:"processId"`
	RootURI               string      `json:"rootUri,omitempty"`
	ClientInfo            *ClientInfo `json:"clientInfo,omitempty"`
	InitializationOptions *Settings   `json:"initializationOptions,omitempty"`
}

// ClientInfo provides information about the client
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult represents the result of the initialize request
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerInfo provides information about the server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerCapabilities defines the capabilities provided by the server
type ServerCapabilities struct {
	TextDocumentSync       *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	ExecuteCommandProvider *ExecuteCommandOptions   `json:"executeCommandProvider,omitempty"`
}

// ExecuteCommandOptions defines command execution capabilities
type ExecuteCommandOptions struct {
	Commands []string `json:"commands"`
}

// TextDocumentSyncOptions defines how text documents are synced
type TextDocumentSyncOptions struct {
	OpenClose bool         `json:"openClose,omitempty"`
	Change    int          `json:"change,omitempty"`
	Save      *SaveOptions `json:"save,omitempty"`
}

// SaveOptions asks the client to include the text on didSave.
type SaveOptions struct {
	IncludeText bool `json:"includeText,omitempty"`
}

// TextDocumentIdentifier identifies a text document
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies a version of a text document
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// TextDocumentItem represents a text document
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent carries the full new text; the server
// only advertises full sync.
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// PublishDiagnosticsParams represents the parameters for textDocument/publishDiagnostics
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// ExecuteCommandParams represents parameters for workspace/executeCommand
type ExecuteCommandParams struct {
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// DidChangeConfigurationParams represents parameters for workspace/didChangeConfiguration
type DidChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}

// Settings are the options a client may send at initialization or on
// workspace/didChangeConfiguration, either bare or under a "warden" key.
type Settings struct {
	Debounce      string   `json:"debounce,omitempty"`
	ParallelFiles int      `json:"parallelFiles,omitempty"`
	Ignore        []string `json:"ignore,omitempty"`
}

// WorkDoneProgressCreateParams represents parameters for window/workDoneProgress/create
type WorkDoneProgressCreateParams struct {
	Token string `json:"token"`
}

// ProgressParams represents parameters for $/progress
type ProgressParams struct {
	Token string `json:"token"`
	Value any    `json:"value"`
}

type WorkDoneProgressBegin struct {
	Kind       string `json:"kind"` // "begin"
	Title      string `json:"title"`
	Message    string `json:"message,omitempty"`
	Percentage int    `json:"percentage"`
}

type WorkDoneProgressReport struct {
	Kind       string `json:"kind"` // "report"
	Message    string `json:"message,omitempty"`
	Percentage int    `json:"percentage"`
}

type WorkDoneProgressEnd struct {
	Kind    string `json:"kind"` // "end"
	Message string `json:"message,omitempty"`
}
