// Package config loads warden's application settings: where the module
// tree and rule packs live, output and storage choices, and telemetry.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full warden configuration.
type Config struct {
	// Modules is the path of the module tree YAML. Empty means the
	// built-in tree.
	Modules     string            `yaml:"modules,omitempty"`
	Format      string            `yaml:"format,omitempty"`
	CacheDir    string            `yaml:"cache_dir,omitempty"`
	RemoteCache RemoteCacheConfig `yaml:"remote_cache,omitempty"`
	Store       StoreConfig       `yaml:"store,omitempty"`
	RulesDirs   []string          `yaml:"rules_dirs,omitempty"`
	GateDir     string            `yaml:"gate_dir,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
	LSP         LSPConfig         `yaml:"lsp,omitempty"`
	Telemetry   TelemetryConfig   `yaml:"telemetry,omitempty"`
}

// RemoteCacheConfig points at another warden server's cache endpoints.
type RemoteCacheConfig struct {
	URL     string `yaml:"url,omitempty"`
	Token   string `yaml:"token,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// StoreConfig selects where check runs are persisted.
type StoreConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ServerConfig configures `warden serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LSPConfig configures `warden lsp`.
type LSPConfig struct {
	// Debounce is how long the server waits after the last edit before
	// checking a document again.
	Debounce      string   `yaml:"debounce,omitempty"`
	ParallelFiles int      `yaml:"parallel_files,omitempty"`
	Ignore        []string `yaml:"ignore,omitempty"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint,omitempty"`
	Protocol       string            `yaml:"protocol,omitempty"`
	Insecure       bool              `yaml:"insecure,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	SampleRate     float64           `yaml:"sample_rate,omitempty"`
	ServiceName    string            `yaml:"service_name,omitempty"`
	ServiceVersion string            `yaml:"service_version,omitempty"`
}

var (
	validFormats   = map[string]bool{"": true, "plain": true, "json": true, "sarif": true, "markdown": true, "pretty": true}
	validBackends  = map[string]bool{"file": true, "sqlite": true}
	validProtocols = map[string]bool{"": true, "grpc": true, "http": true}
)

// Validate checks that the configuration is valid and ready to use
func (c *Config) Validate() error {
	if !validFormats[c.Format] {
		return fmt.Errorf("format must be one of plain, json, sarif, markdown, pretty; got: %s", c.Format)
	}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("store.backend must be 'file' or 'sqlite', got: %s", c.Store.Backend)
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.RemoteCache.Timeout != "" {
		if _, err := time.ParseDuration(c.RemoteCache.Timeout); err != nil {
			return fmt.Errorf("remote_cache.timeout: %w", err)
		}
	}
	if c.LSP.Debounce != "" {
		if _, err := time.ParseDuration(c.LSP.Debounce); err != nil {
			return fmt.Errorf("lsp.debounce: %w", err)
		}
	}
	if c.LSP.ParallelFiles < 0 {
		return fmt.Errorf("lsp.parallel_files must not be negative, got: %d", c.LSP.ParallelFiles)
	}
	if !validProtocols[c.Telemetry.Protocol] {
		return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got: %g", c.Telemetry.SampleRate)
	}
	return nil
}

// RemoteTimeout returns the parsed remote cache timeout, or zero.
func (c *Config) RemoteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.RemoteCache.Timeout)
	return d
}

// LSPDebounce returns the parsed LSP debounce, or zero.
func (c *Config) LSPDebounce() time.Duration {
	d, _ := time.ParseDuration(c.LSP.Debounce)
	return d
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones: non-zero scalar fields override,
// non-empty lists and maps replace. Telemetry.Enabled takes effect from a
// higher tier only when that tier also names an endpoint or sets it true.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		override(&result.Modules, cfg.Modules)
		override(&result.Format, cfg.Format)
		override(&result.CacheDir, cfg.CacheDir)
		override(&result.RemoteCache.URL, cfg.RemoteCache.URL)
		override(&result.RemoteCache.Token, cfg.RemoteCache.Token)
		override(&result.RemoteCache.Timeout, cfg.RemoteCache.Timeout)
		override(&result.Store.Backend, cfg.Store.Backend)
		override(&result.Store.Path, cfg.Store.Path)
		override(&result.GateDir, cfg.GateDir)
		override(&result.Server.Addr, cfg.Server.Addr)
		if len(cfg.RulesDirs) > 0 {
			result.RulesDirs = cfg.RulesDirs
		}
		override(&result.LSP.Debounce, cfg.LSP.Debounce)
		if cfg.LSP.ParallelFiles > 0 {
			result.LSP.ParallelFiles = cfg.LSP.ParallelFiles
		}
		if len(cfg.LSP.Ignore) > 0 {
			result.LSP.Ignore = cfg.LSP.Ignore
		}

		t := cfg.Telemetry
		if t.Enabled || t.Endpoint != "" {
			result.Telemetry.Enabled = t.Enabled
		}
		override(&result.Telemetry.Endpoint, t.Endpoint)
		override(&result.Telemetry.Protocol, t.Protocol)
		override(&result.Telemetry.ServiceName, t.ServiceName)
		override(&result.Telemetry.ServiceVersion, t.ServiceVersion)
		if t.Insecure {
			result.Telemetry.Insecure = true
		}
		if t.SampleRate != 0 {
			result.Telemetry.SampleRate = t.SampleRate
		}
		if len(t.Headers) > 0 {
			result.Telemetry.Headers = t.Headers
		}
	}

	return result
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}

// MachinePath is the per-user config file, $HOME/.config/warden/warden.yaml.
func MachinePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "warden", "warden.yaml")
}

// ProjectPath is the config file of the project rooted at dir.
func ProjectPath(dir string) string {
	return filepath.Join(dir, ".warden", "warden.yaml")
}
