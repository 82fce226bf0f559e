package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init creates and sets the package-level default slog logger. All diagnostics
// go to stderr so stdout stays clean for rendered tables and JSON dumps.
// format is "json" or "text" (the default).
func Init(format string, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(format, level, os.Stderr)))
}

// NewHandler builds the handler Init installs: a JSON handler when format is
// "json" (case-insensitive), a text handler otherwise.
func NewHandler(format string, level slog.Level, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
