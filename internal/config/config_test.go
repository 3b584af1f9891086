package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMerge_HigherTierOverrides(t *testing.T) {
	system := SystemDefaults()
	project := &Config{
		Format:    "sarif",
		Store:     StoreConfig{Backend: "sqlite"},
		RulesDirs: []string{"rules"},
	}
	merged := MergeConfigs(system, project)

	if merged.Format != "sarif" {
		t.Errorf("expected format 'sarif', got %q", merged.Format)
	}
	if merged.Store.Backend != "sqlite" {
		t.Errorf("expected backend 'sqlite', got %q", merged.Store.Backend)
	}
	if merged.Store.Path != ".warden/runs" {
		t.Errorf("expected store path preserved, got %q", merged.Store.Path)
	}
	if len(merged.RulesDirs) != 1 || merged.RulesDirs[0] != "rules" {
		t.Errorf("unexpected rules dirs %v", merged.RulesDirs)
	}
	if merged.CacheDir != ".warden/cache" {
		t.Errorf("expected cache dir preserved, got %q", merged.CacheDir)
	}
}

func TestMerge_NilTiersSkipped(t *testing.T) {
	merged := MergeConfigs(nil, SystemDefaults(), nil)
	if merged.Server.Addr != "127.0.0.1:8765" {
		t.Errorf("expected default addr, got %q", merged.Server.Addr)
	}
}

func TestMerge_Telemetry(t *testing.T) {
	machine := &Config{Telemetry: TelemetryConfig{Enabled: true, Endpoint: "otel:4317", Headers: map[string]string{"k": "v"}}}
	project := &Config{Telemetry: TelemetryConfig{Protocol: "http"}}
	merged := MergeConfigs(SystemDefaults(), machine, project)

	if !merged.Telemetry.Enabled {
		t.Error("a tier that does not mention telemetry must not disable it")
	}
	if merged.Telemetry.Endpoint != "otel:4317" || merged.Telemetry.Protocol != "http" {
		t.Errorf("unexpected telemetry %+v", merged.Telemetry)
	}
	if merged.Telemetry.Headers["k"] != "v" {
		t.Errorf("expected headers merged, got %v", merged.Telemetry.Headers)
	}
	if merged.Telemetry.SampleRate != 1.0 {
		t.Errorf("expected default sample rate, got %v", merged.Telemetry.SampleRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"bad backend", func(c *Config) { c.Store.Backend = "postgres" }, true},
		{"missing store path", func(c *Config) { c.Store.Path = "" }, true},
		{"bad protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, true},
		{"bad sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }, true},
		{"bad timeout", func(c *Config) { c.RemoteCache.Timeout = "soon" }, true},
		{"good timeout", func(c *Config) { c.RemoteCache.Timeout = "5s" }, false},
		{"bad lsp debounce", func(c *Config) { c.LSP.Debounce = "later" }, true},
		{"negative lsp parallelism", func(c *Config) { c.LSP.ParallelFiles = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SystemDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge_LSP(t *testing.T) {
	project := &Config{LSP: LSPConfig{Debounce: "1s", Ignore: []string{"**/gen/**"}}}
	merged := MergeConfigs(SystemDefaults(), project)

	if got := merged.LSPDebounce(); got != time.Second {
		t.Errorf("expected 1s debounce, got %v", got)
	}
	if merged.LSP.ParallelFiles != 3 {
		t.Errorf("expected default parallelism kept, got %d", merged.LSP.ParallelFiles)
	}
	if len(merged.LSP.Ignore) != 1 || merged.LSP.Ignore[0] != "**/gen/**" {
		t.Errorf("expected ignore list replaced, got %v", merged.LSP.Ignore)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadTiered(t *testing.T) {
	dir := t.TempDir()
	machine := filepath.Join(dir, "machine.yaml")
	project := filepath.Join(dir, "project.yaml")
	os.WriteFile(machine, []byte("format: json\ncache_dir: /tmp/wc\n"), 0644)
	os.WriteFile(project, []byte("format: markdown\nmodules: checks.yaml\nremote_cache:\n  url: http://cache:8765\n"), 0644)

	cfg, err := LoadTiered(machine, project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Format != "markdown" {
		t.Errorf("expected project format, got %q", cfg.Format)
	}
	if cfg.CacheDir != "/tmp/wc" {
		t.Errorf("expected machine cache dir, got %q", cfg.CacheDir)
	}
	if cfg.Modules != "checks.yaml" {
		t.Errorf("expected modules path, got %q", cfg.Modules)
	}
	if cfg.RemoteCache.URL != "http://cache:8765" {
		t.Errorf("expected remote cache url, got %q", cfg.RemoteCache.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config should validate: %v", err)
	}
}

func TestLoadTiered_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("format: [\n"), 0644)
	if _, err := LoadTiered("", path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPaths(t *testing.T) {
	if got := ProjectPath("/repo"); got != filepath.Join("/repo", ".warden", "warden.yaml") {
		t.Errorf("unexpected project path %q", got)
	}
}
