package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chris-regnier/warden/internal/config"
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/violation"
)

// Checker is what the server needs from the engine.
type Checker interface {
	Process(ctx context.Context, path, text string) (violation.List, error)
	Accepts(path string) bool
	Modules() []engine.ModuleInfo
}

// ServerConfig holds configuration for the LSP server
type ServerConfig struct {
	Watcher WatcherConfig
	Ignore  []string
}

// ServerConfigFromLSPConfig converts the lsp section of warden.yaml.
func ServerConfigFromLSPConfig(c config.LSPConfig) ServerConfig {
	cfg := ServerConfig{Watcher: DefaultWatcherConfig(), Ignore: c.Ignore}
	if d, err := time.ParseDuration(c.Debounce); err == nil && d > 0 {
		cfg.Watcher.DebounceDuration = d
	}
	if c.ParallelFiles > 0 {
		cfg.Watcher.ParallelFiles = c.ParallelFiles
	}
	return cfg
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

type document struct {
	text    string
	version int
}

// Server implements an LSP server over a byte stream, usually stdio.
type Server struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	checker Checker
	logger  *slog.Logger
	version string

	docs  map[string]document
	docMu sync.RWMutex

	ignore   *IgnoreSet
	ignoreMu sync.RWMutex

	watcher  *DebouncedWatcher
	progress *ProgressReporter
	commands *CommandHandler
}

// NewServer creates a server reading requests from r and writing to w. It
// fails only when an ignore pattern does not compile.
func NewServer(r io.Reader, w io.Writer, checker Checker, cfg ServerConfig, opts ...Option) (*Server, error) {
	ignore, err := NewIgnoreSet(cfg.Ignore)
	if err != nil {
		return nil, err
	}
	s := &Server{
		reader:  bufio.NewReader(r),
		writer:  w,
		checker: checker,
		logger:  slog.New(slog.DiscardHandler),
		version: "dev",
		docs:    make(map[string]document),
		ignore:  ignore,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.progress = NewProgressReporter(s.sendMessage)
	s.commands = NewCommandHandler(s)
	s.watcher = NewDebouncedWatcher(cfg.Watcher, s.checkAndPublish)
	return s, nil
}

// Run reads and dispatches messages until the client sends exit, the
// stream ends, or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer s.watcher.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := readMessage(s.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := s.dispatch(ctx, msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("error handling message", "method", msg.Method, "error", err)
		}
	}
}

// readMessage reads one Content-Length framed message. Other headers are
// skipped.
func readMessage(r *bufio.Reader) (*jsonRPCMessage, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid content length: %q", value)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, errors.New("missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	var msg jsonRPCMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("parsing JSON-RPC message: %w", err)
	}
	return &msg, nil
}

func (s *Server) dispatch(ctx context.Context, msg *jsonRPCMessage) error {
	switch msg.Method {
	case MethodInitialize:
		return s.handleInitialize(msg.ID, msg.Params)
	case MethodInitialized:
		return nil
	case MethodTextDocumentDidOpen:
		return s.handleDidOpen(msg.Params)
	case MethodTextDocumentDidChange:
		return s.handleDidChange(msg.Params)
	case MethodTextDocumentDidSave:
		return s.handleDidSave(msg.Params)
	case MethodTextDocumentDidClose:
		return s.handleDidClose(msg.Params)
	case MethodWorkspaceExecuteCommand:
		return s.handleExecuteCommand(ctx, msg.ID, msg.Params)
	case MethodWorkspaceDidChangeConfig:
		return s.handleDidChangeConfiguration(msg.Params)
	case MethodShutdown:
		s.watcher.Stop()
		return s.sendResponse(msg.ID, nil, nil)
	case MethodExit:
		return io.EOF
	case "":
		// A response to one of our requests, such as progress creation.
		return nil
	default:
		if msg.ID == nil {
			s.logger.Debug("unhandled LSP notification", "method", msg.Method)
			return nil
		}
		return s.sendResponse(msg.ID, nil, &responseError{
			Code:    codeMethodNotFound,
			Message: "method not found: " + msg.Method,
		})
	}
}

func (s *Server) handleInitialize(id any, params json.RawMessage) error {
	var p InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, invalidParams(err))
	}
	if p.InitializationOptions != nil {
		if err := s.applySettings(*p.InitializationOptions); err != nil {
			s.logger.Warn("ignoring initialization options", "error", err)
		}
	}

	return s.sendResponse(id, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    textDocumentSyncFull,
				Save:      &SaveOptions{IncludeText: true},
			},
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{CommandCheckFile, CommandCheckWorkspace, CommandListModules},
			},
		},
		ServerInfo: &ServerInfo{Name: "warden-lsp", Version: s.version},
	}, nil)
}

func (s *Server) handleDidOpen(params json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	s.update(p.TextDocument.URI, p.TextDocument.Text, p.TextDocument.Version)
	return nil
}

func (s *Server) handleDidChange(params json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change holds the whole document.
	last := p.ContentChanges[len(p.ContentChanges)-1]
	s.update(p.TextDocument.URI, last.Text, p.TextDocument.Version)
	return nil
}

func (s *Server) handleDidSave(params json.RawMessage) error {
	var p DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	s.docMu.RLock()
	doc, ok := s.docs[uri]
	s.docMu.RUnlock()
	if p.Text != nil {
		s.update(uri, *p.Text, doc.version)
	} else if ok {
		s.update(uri, doc.text, doc.version)
	}
	return nil
}

func (s *Server) handleDidClose(params json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	s.docMu.Lock()
	_, tracked := s.docs[uri]
	delete(s.docs, uri)
	s.docMu.Unlock()
	s.watcher.Forget(uri)
	if !tracked {
		return nil
	}
	return s.publishDiagnostics(uri, nil, []Diagnostic{})
}

// update records the document and queues a check when the engine would
// check its path.
func (s *Server) update(uri, text string, version int) {
	if !s.shouldCheck(uri) {
		return
	}
	s.docMu.Lock()
	s.docs[uri] = document{text: text, version: version}
	s.docMu.Unlock()
	s.watcher.FileChanged(uri)
}

func (s *Server) shouldCheck(uri string) bool {
	path := uriToPath(uri)
	s.ignoreMu.RLock()
	ignored := s.ignore.Match(path)
	s.ignoreMu.RUnlock()
	return !ignored && s.checker.Accepts(path)
}

func (s *Server) handleExecuteCommand(ctx context.Context, id any, params json.RawMessage) error {
	var p ExecuteCommandParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendResponse(id, nil, invalidParams(err))
	}
	result, err := s.commands.Execute(ctx, p)
	if err != nil {
		return s.sendResponse(id, nil, &responseError{Code: codeInternalError, Message: err.Error()})
	}
	return s.sendResponse(id, result, nil)
}

func (s *Server) handleDidChangeConfiguration(params json.RawMessage) error {
	var p DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	raw := p.Settings
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		if w, ok := nested["warden"]; ok {
			raw = w
		}
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn("ignoring client settings", "error", err)
		return nil
	}
	if err := s.applySettings(settings); err != nil {
		s.logger.Warn("ignoring client settings", "error", err)
	}
	return nil
}

func (s *Server) applySettings(settings Settings) error {
	var wc WatcherConfig
	if settings.Debounce != "" {
		d, err := time.ParseDuration(settings.Debounce)
		if err != nil {
			return fmt.Errorf("debounce: %w", err)
		}
		wc.DebounceDuration = d
	}
	wc.ParallelFiles = settings.ParallelFiles
	if len(settings.Ignore) > 0 {
		ignore, err := NewIgnoreSet(settings.Ignore)
		if err != nil {
			return err
		}
		s.ignoreMu.Lock()
		s.ignore = ignore
		s.ignoreMu.Unlock()
	}
	s.watcher.UpdateConfig(wc)
	return nil
}

// checkAndPublish checks the current text of uri and publishes the result,
// unless the document changed or closed while the check ran.
func (s *Server) checkAndPublish(ctx context.Context, uri string) {
	s.docMu.RLock()
	doc, ok := s.docs[uri]
	s.docMu.RUnlock()
	if !ok {
		return
	}

	found, err := s.checker.Process(ctx, uriToPath(uri), doc.text)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("check failed", "uri", uri, "error", err)
		}
		return
	}

	s.docMu.RLock()
	cur, ok := s.docs[uri]
	s.docMu.RUnlock()
	if !ok || cur != doc {
		return
	}
	version := doc.version
	if err := s.publishDiagnostics(uri, &version, ToDiagnostics(found, doc.text)); err != nil {
		s.logger.Error("failed to publish diagnostics", "uri", uri, "error", err)
	}
}

func (s *Server) publishDiagnostics(uri string, version *int, diagnostics []Diagnostic) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodTextDocumentPublishDiagnostics,
		Params:  mustMarshal(PublishDiagnosticsParams{URI: uri, Version: version, Diagnostics: diagnostics}),
	})
}

func (s *Server) sendResponse(id, result any, rpcErr *responseError) error {
	msg := jsonRPCMessage{JSONRPC: "2.0", ID: id, Error: rpcErr}
	if rpcErr == nil {
		// A successful response must carry a result, even a null one.
		msg.Result = resultOrNull(result)
	}
	return s.sendMessage(msg)
}

// sendMessage writes msg with its Content-Length header. Checks publish
// from the watcher's goroutines, so writes are serialized.
func (s *Server) sendMessage(msg jsonRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	_, err = s.writer.Write(data)
	return err
}

func resultOrNull(v any) any {
	if v == nil {
		return json.RawMessage("null")
	}
	return v
}

func invalidParams(err error) *responseError {
	return &responseError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
}

// uriToPath converts a file:// URI to a filesystem path. Anything else is
// returned unchanged.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return data
}
