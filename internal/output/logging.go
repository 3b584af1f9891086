package output

import (
	"io"
	"log/slog"
	"math"

	"github.com/chris-regnier/warden/internal/telemetry"
)

// SetupLogger creates a slog.Logger configured for the given verbosity.
// Output is written to w (typically os.Stderr) and records logged inside
// a span carry its trace and span ids.
//
// Log level mapping:
//   - quiet=true: nothing is logged
//   - debug=true: slog.LevelDebug
//   - verbose=true: slog.LevelInfo
//   - default: slog.LevelWarn
//
// Priority: quiet > debug > verbose > default
func SetupLogger(quiet, verbose, debug bool, w io.Writer) *slog.Logger {
	var level slog.Level

	switch {
	case quiet:
		level = slog.Level(math.MaxInt)
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	default:
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(telemetry.NewTraceHandler(handler))
}
