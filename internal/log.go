package internal

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLogLevel maps the LOG_LEVEL names (ERROR, WARN, INFO, DEBUG) to slog levels.
// Unknown values fall back to INFO.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return slog.LevelError
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger writing to w at the given level
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)}))
}

// NewDefaultLogger creates a stdout logger based on the LOG_LEVEL environment variable
func NewDefaultLogger() *slog.Logger {
	return NewLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NopLogger discards everything. Used by tests and the CLI quiet mode.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
