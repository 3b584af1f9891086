package config

// SystemDefaults returns the built-in configuration.
func SystemDefaults() *Config {
	return &Config{
		CacheDir: ".warden/cache",
		Store: StoreConfig{
			Backend: "file",
			Path:    ".warden/runs",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		LSP: LSPConfig{
			Debounce:      "300ms",
			ParallelFiles: 3,
			Ignore:        []string{"**/.git/**", "**/.warden/**", "**/target/**", "**/build/**"},
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Endpoint:       "localhost:4317",
			Protocol:       "grpc",
			SampleRate:     1.0,
			ServiceName:    "warden",
			ServiceVersion: "dev",
		},
	}
}
