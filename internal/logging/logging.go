// Package logging wires the process-wide structured logger the way
// cmd/nexus/main.go wires its slog.JSONHandler, but reads the verbosity
// from RUST_LOG instead of a CLI flag.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a JSON logger writing to stderr, sets it as the slog
// default, and returns it for explicit threading into component
// constructors (WithLogger-style options, never a bare global read).
func Setup(rustLog string) *slog.Logger {
	level := levelFromRustLog(rustLog)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func levelFromRustLog(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unrecognized RUST_LOG value, defaulting to info", "value", v)
		return slog.LevelInfo
	}
}
