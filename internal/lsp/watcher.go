package lsp

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// WatcherConfig holds configuration for the debounced watcher
type WatcherConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
}

// DefaultWatcherConfig returns the watcher defaults.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 300 * time.Millisecond,
		ParallelFiles:    3,
	}
}

// DebouncedWatcher batches document changes and calls onTrigger for each
// queued URI once no change has arrived for the debounce duration.
type DebouncedWatcher struct {
	config    WatcherConfig
	onTrigger func(ctx context.Context, uri string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// NewDebouncedWatcher creates a watcher. Zero fields of config take their
// defaults.
func NewDebouncedWatcher(config WatcherConfig, onTrigger func(ctx context.Context, uri string)) *DebouncedWatcher {
	if onTrigger == nil {
		panic("onTrigger callback cannot be nil")
	}
	def := DefaultWatcherConfig()
	if config.DebounceDuration <= 0 {
		config.DebounceDuration = def.DebounceDuration
	}
	if config.ParallelFiles <= 0 {
		config.ParallelFiles = def.ParallelFiles
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DebouncedWatcher{
		config:    config,
		onTrigger: onTrigger,
		pending:   make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// UpdateConfig applies the non-zero fields of config.
func (w *DebouncedWatcher) UpdateConfig(config WatcherConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if config.DebounceDuration > 0 {
		w.config.DebounceDuration = config.DebounceDuration
	}
	if config.ParallelFiles > 0 {
		w.config.ParallelFiles = config.ParallelFiles
	}
}

// Config returns the current configuration
func (w *DebouncedWatcher) Config() WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// FileChanged queues uri and restarts the quiet period.
func (w *DebouncedWatcher) FileChanged(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[uri] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDuration, w.flush)
}

// Forget drops uri from the queue.
func (w *DebouncedWatcher) Forget(uri string) {
	w.mu.Lock()
	delete(w.pending, uri)
	w.mu.Unlock()
}

func (w *DebouncedWatcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	uris := make([]string, 0, len(w.pending))
	for u := range w.pending {
		uris = append(uris, u)
	}
	w.pending = make(map[string]struct{})
	limit := w.config.ParallelFiles
	ctx := w.ctx
	w.mu.Unlock()

	slices.Sort(uris)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, uri := range uris {
		g.Go(func() error {
			w.onTrigger(gctx, uri)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop cancels in-flight checks and discards anything queued.
func (w *DebouncedWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.cancel()
}

// IgnoreSet matches document paths against "**"-style globs.
type IgnoreSet struct {
	globs []glob.Glob
}

// NewIgnoreSet compiles patterns with "/" as the separator, so "*" stays
// within one path segment and "**" spans any number.
func NewIgnoreSet(patterns []string) (*IgnoreSet, error) {
	s := &IgnoreSet{}
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// Match reports whether path is ignored. Relative paths are matched as if
// rooted at "/". A nil set ignores nothing.
func (s *IgnoreSet) Match(path string) bool {
	if s == nil {
		return false
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for _, g := range s.globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}
