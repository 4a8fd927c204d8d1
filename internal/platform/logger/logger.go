// Package logger builds the process logger for the intake service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns the process logger: JSON records on stdout, minimum level
// taken from LOG_LEVEL (debug, info, warn, error; default info).
func New() *slog.Logger {
	return NewWith(os.Stdout, LevelFromEnv())
}

// NewWith builds a JSON logger on an arbitrary writer.
func NewWith(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// LevelFromEnv reads LOG_LEVEL. Unknown or empty values mean info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
