// Package engine builds the configured modules and runs them over files,
// one file at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/astcheck"
	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/javaparse"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/rules"
	"github.com/chris-regnier/warden/internal/violation"
)

const (
	CheckerName    = "Checker"
	TreeWalkerName = "TreeWalker"
)

var engineTracer = otel.Tracer("github.com/chris-regnier/warden/internal/engine")

// Parser turns source text into a tree.
type Parser func(ctx context.Context, src []byte) (*ast.Node, error)

// ModuleInfo describes one configured module.
type ModuleInfo struct {
	Path     string             `json:"path"`
	Name     string             `json:"name"`
	ID       string             `json:"id,omitempty"`
	Severity violation.Severity `json:"severity"`
}

// Engine holds the configured modules. Process is serialized: the checks
// keep per-file state, so only one file is ever in flight.
type Engine struct {
	mu sync.Mutex

	root        *module.Config
	fingerprint string
	extensions  []string
	walker      *astcheck.Walker
	detectors   []rules.Detector
	modules     []ModuleInfo

	parse    Parser
	cache    cache.CacheManager
	recorder *metrics.Recorder
	logger   *slog.Logger
	version  string
	inst     instruments
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger for module construction and per-file faults.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache makes Process consult and fill a result cache.
func WithCache(c cache.CacheManager) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithParser replaces the Java front end.
func WithParser(p Parser) Option {
	return func(e *Engine) {
		e.parse = p
	}
}

// WithRecorder records one metrics event per processed file.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithVersion sets the version folded into cache keys, so results cached
// by another build are never reused.
func WithVersion(v string) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// New builds every module declared under root. root must be a Checker;
// its TreeWalker child holds tree checks and its other children are text
// detectors. Any problem is returned as a *module.ConfigError.
func New(root *module.Config, reg *module.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		root:     root,
		parse:    javaparse.Parse,
		recorder: metrics.NoOpRecorder(),
		logger:   slog.Default(),
		version:  "dev",
		inst:     newInstruments(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if root == nil || root.Name != CheckerName {
		name := "<nil>"
		if root != nil {
			name = root.Label()
		}
		return nil, &module.ConfigError{Path: name, Err: fmt.Errorf("%w: root module must be %s", module.ErrMisplaced, CheckerName)}
	}

	path := root.Label()
	s := module.NewSettings(path, root)
	severity := violation.SeverityError
	if err := s.Severity("severity", &severity); err != nil {
		return nil, err
	}
	e.extensions = []string{"java"}
	if s.Has("fileExtensions") {
		s.Strings("fileExtensions", &e.extensions)
	}
	for i, ext := range e.extensions {
		e.extensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}

	var checks []astcheck.Check
	walkers := 0
	for _, child := range root.Children {
		childPath := module.JoinPath(path, child.Label())
		if child.Name == TreeWalkerName {
			if walkers++; walkers > 1 {
				return nil, &module.ConfigError{Path: childPath, Err: fmt.Errorf("%w: only one %s is allowed", module.ErrMisplaced, TreeWalkerName)}
			}
			built, err := e.buildChecks(child, childPath, reg, severity)
			if err != nil {
				return nil, err
			}
			checks = built
			continue
		}
		if err := e.buildDetector(child, childPath, reg, severity); err != nil {
			return nil, err
		}
	}

	e.walker = astcheck.NewWalker(checks...).WithLogger(e.logger)
	e.fingerprint = root.Fingerprint()
	e.logger.Debug("engine ready", "checks", len(checks), "detectors", len(e.detectors), "extensions", e.extensions)
	return e, nil
}

func (e *Engine) buildChecks(tw *module.Config, path string, reg *module.Registry, severity violation.Severity) ([]astcheck.Check, error) {
	s := module.NewSettings(path, tw)
	if err := s.Severity("severity", &severity); err != nil {
		return nil, err
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}

	var checks []astcheck.Check
	for _, child := range tw.Children {
		childPath := module.JoinPath(path, child.Label())
		m, err := reg.Build(childPath, child, astcheck.Prepare(child.ID, severity))
		if err != nil {
			return nil, err
		}
		c := m.(astcheck.Check)
		checks = append(checks, c)
		e.modules = append(e.modules, ModuleInfo{Path: childPath, Name: child.Name, ID: child.ID, Severity: c.Meta().Severity})
		e.logger.Debug("configured check", "path", childPath)
	}
	return checks, nil
}

func (e *Engine) buildDetector(cfg *module.Config, path string, reg *module.Registry, severity violation.Severity) error {
	if len(cfg.Children) > 0 {
		return &module.ConfigError{Path: path, Err: fmt.Errorf("%w: %s cannot have children", module.ErrMisplaced, cfg.Name)}
	}
	m, err := reg.Build(path, cfg, rules.Prepare(cfg.ID, severity))
	if err != nil {
		return err
	}
	d := m.(rules.Detector)
	e.detectors = append(e.detectors, d)
	e.modules = append(e.modules, ModuleInfo{Path: path, Name: cfg.Name, ID: cfg.ID, Severity: d.Meta().Severity})
	e.logger.Debug("configured detector", "path", path)
	return nil
}

// Modules lists the configured modules in declaration order, tree checks
// first.
func (e *Engine) Modules() []ModuleInfo {
	return e.modules
}

// Fingerprint identifies the module configuration.
func (e *Engine) Fingerprint() string { return e.fingerprint }

// Accepts reports whether path has one of the configured file extensions.
// An empty extension list accepts everything.
func (e *Engine) Accepts(path string) bool {
	if len(e.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, want := range e.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// Process runs every module over one file and returns its sorted,
// de-duplicated violations. Files whose extension is not accepted yield
// nothing. A file that fails to parse is reported as a violation at line
// 1 and still scanned by the text detectors; the only errors returned are
// context errors.
func (e *Engine) Process(ctx context.Context, path, text string) (violation.List, error) {
	if !e.Accepts(path) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := engineTracer.Start(ctx, "process file",
		trace.WithAttributes(attribute.String("warden.file.path", path)))
	defer span.End()

	fb := e.recorder.StartFile(path, text)
	key := cache.CacheKey{FileHash: cache.ContentHash(text), Fingerprint: e.fingerprint, Version: e.version}

	if e.cache == nil {
		fb.WithCacheResult(metrics.CacheDisabled, "")
	} else {
		entry, err := e.cache.Get(ctx, key)
		if err == nil {
			span.SetAttributes(attribute.Bool("warden.cache.hit", true))
			fb.WithCacheResult(metrics.CacheHit, key.Hash()).MarkParsed(nil).Complete(entry.Violations)
			e.inst.record(ctx, true, len(entry.Violations), time.Since(start))
			return entry.Violations, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("cache lookup failed", "file", path, "err", err)
		}
		span.SetAttributes(attribute.Bool("warden.cache.hit", false))
		fb.WithCacheResult(metrics.CacheMiss, key.Hash())
	}

	found, err := e.check(ctx, path, text, fb)
	if err != nil {
		fb.CompleteWithError(err)
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Put(ctx, &cache.CacheEntry{Key: key, Violations: found}); err != nil {
			e.logger.Warn("cache store failed", "file", path, "err", err)
		}
	}
	span.SetAttributes(attribute.Int("warden.violations", len(found)))
	fb.Complete(found)
	e.inst.record(ctx, false, len(found), time.Since(start))
	return found, nil
}

func (e *Engine) check(ctx context.Context, path, text string, fb *metrics.FileBuilder) (violation.List, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var found violation.List
	if len(e.walker.Checks()) > 0 {
		root, err := e.parse(ctx, []byte(text))
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		fb.MarkParsed(err)
		if err != nil {
			e.logger.Warn("parse failed", "file", path, "err", err)
			meta := violation.Meta{Source: CheckerName, Severity: violation.SeverityError}
			found = append(found, meta.At(1, 0, "Got an exception - "+err.Error()))
		} else {
			found = append(found, e.walker.Walk(astcheck.NewFileContext(path, text), root)...)
		}
	} else {
		fb.MarkParsed(nil)
	}

	for _, d := range e.detectors {
		found = append(found, d.Process(text)...)
	}
	return found.Normalize(), nil
}

// Result is the outcome for one file.
type Result struct {
	Path       string         `json:"path"`
	Violations violation.List `json:"violations"`
}

// File is a path and its text.
type File struct {
	Path string
	Text string
}

// ProcessAll processes files in order, skipping those whose extension is
// not accepted.
func (e *Engine) ProcessAll(ctx context.Context, files []File) ([]Result, error) {
	var results []Result
	for _, f := range files {
		if !e.Accepts(f.Path) {
			continue
		}
		found, err := e.Process(ctx, f.Path, f.Text)
		if err != nil {
			return results, fmt.Errorf("processing %s: %w", f.Path, err)
		}
		results = append(results, Result{Path: f.Path, Violations: found})
	}
	return results, nil
}
