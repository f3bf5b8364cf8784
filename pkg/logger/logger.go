package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines structured logging interface
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger implements Logger using Go's standard log/slog
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a structured logger writing to stdout.
// format is "json" (default) or "text".
func New(level, format string) Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a structured logger writing to w.
func NewWithWriter(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Info logs an informational message
func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// With returns a new logger with the specified attributes
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// Default returns a default logger instance
func Default() Logger {
	return New("info", "json")
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() Logger {
	return NewWithWriter(io.Discard, "error", "json")
}
