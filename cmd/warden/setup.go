package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/config"
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/output"
	"github.com/chris-regnier/warden/internal/rules"
	"github.com/chris-regnier/warden/internal/store"
	"github.com/chris-regnier/warden/internal/telemetry"
)

// globalOptions are the persistent flags every command shares.
type globalOptions struct {
	dir                   string
	quiet, verbose, debug bool
}

// session is the configuration and logger a command runs with.
type session struct {
	dir    string
	cfg    *config.Config
	logger *slog.Logger
}

func (g *globalOptions) open(cmd *cobra.Command) (*session, error) {
	logger := output.SetupLogger(g.quiet, g.verbose, g.debug, cmd.ErrOrStderr())
	cfg, err := config.LoadTiered(config.MachinePath(), config.ProjectPath(g.dir))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &session{dir: g.dir, cfg: cfg, logger: logger}, nil
}

// resolve makes a config path relative to the project directory.
func (s *session) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

// absFlag turns a path given on the command line into one that resolve
// leaves alone.
func absFlag(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (s *session) validate() error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// startTelemetry installs exporters when telemetry is on and returns the
// function that flushes them.
func (s *session) startTelemetry(ctx context.Context) (func(), error) {
	cfg := s.cfg.Telemetry
	if cfg.ServiceVersion == "" || cfg.ServiceVersion == "dev" {
		cfg.ServiceVersion = version
	}
	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			s.logger.Warn("telemetry shutdown error", "error", err)
		}
	}, nil
}

// loadRules merges the embedded rule pack with the user's, the configured
// directories and the project's, in that order.
func (s *session) loadRules() ([]rules.Rule, error) {
	dirs := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "warden", "rules"))
	}
	for _, d := range s.cfg.RulesDirs {
		dirs = append(dirs, s.resolve(d))
	}
	dirs = append(dirs, filepath.Join(s.dir, ".warden", "rules"))
	rs, err := rules.LoadRulesDirs(dirs...)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return rs, nil
}

func (s *session) moduleTree(rs []rules.Rule) (*module.Config, error) {
	if s.cfg.Modules == "" {
		return engine.DefaultTree(rs), nil
	}
	root, err := module.Load(s.resolve(s.cfg.Modules))
	if err != nil {
		return nil, fmt.Errorf("loading module tree: %w", err)
	}
	return root, nil
}

// resultCache is the on-disk cache, fronting the remote one when a URL is
// configured. It is nil when caching is off.
func (s *session) resultCache() cache.CacheManager {
	if s.cfg.CacheDir == "" {
		return nil
	}
	local := cache.NewLocalCache(s.resolve(s.cfg.CacheDir))
	var remote cache.CacheManager
	if rc := s.cfg.RemoteCache; rc.URL != "" {
		remote = cache.NewRemoteCache(rc.URL,
			cache.WithToken(rc.Token),
			cache.WithTimeout(s.cfg.RemoteTimeout()))
	}
	return cache.NewMultiTierCache(local, remote, cache.DefaultMultiTierConfig()).WithLogger(s.logger)
}

// buildEngine configures the engine from the module tree. It returns the
// rule pack entries too, for describing SARIF rules.
func (s *session) buildEngine(c cache.CacheManager, collector *metrics.Collector) (*engine.Engine, []rules.Rule, error) {
	rs, err := s.loadRules()
	if err != nil {
		return nil, nil, err
	}
	root, err := s.moduleTree(rs)
	if err != nil {
		return nil, nil, err
	}
	opts := []engine.Option{engine.WithLogger(s.logger), engine.WithVersion(version)}
	if c != nil {
		opts = append(opts, engine.WithCache(c))
	}
	if collector != nil {
		opts = append(opts, engine.WithRecorder(metrics.NewRecorder(collector)))
	}
	eng, err := engine.New(root, engine.DefaultRegistry(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring modules: %w", err)
	}
	return eng, rs, nil
}

// openStore returns the configured run store and the function that
// releases it.
func (s *session) openStore() (store.Store, func(), error) {
	path := s.resolve(s.cfg.Store.Path)
	switch s.cfg.Store.Backend {
	case "sqlite":
		// The default store path names a directory; sqlite wants a file.
		if path != ":memory:" {
			if filepath.Ext(path) == "" {
				path += ".db"
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating run store directory: %w", err)
			}
		}
		st, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening run store: %w", err)
		}
		return st, func() {
			if err := st.Close(); err != nil {
				s.logger.Warn("closing run store", "error", err)
			}
		}, nil
	default:
		return store.NewFileStore(path), func() {}, nil
	}
}

// latestRun returns the id of the most recent run in st.
func (s *session) latestRun(ctx context.Context, st store.Store) (string, error) {
	ids, err := st.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing runs: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no runs found in %s", s.resolve(s.cfg.Store.Path))
	}
	return ids[0], nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
