// Package logger provides a small context-aware structured logger built on slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Level represents a logging level.
type Level = slog.Level

// Supported logging levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger writes structured records. Every method takes the caller's context
// so handlers can pull request-scoped values from it.
type Logger struct {
	handler slog.Handler
}

// ParseLevel parses debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	var l Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return LevelInfo, err
	}
	return l, nil
}

// New constructs a text logger writing to w at or above minLevel.
// The service name is attached to every record.
func New(w io.Writer, minLevel Level, service string) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: minLevel})
	l := NewWithHandler(h)
	if service != "" {
		l = l.With("service", service)
	}
	return l
}

// NewWithHandler wraps an existing slog handler.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{handler: h}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return NewWithHandler(slog.DiscardHandler)
}

// NewFile opens (or creates) path for appending and returns a logger writing
// to it along with a close function. An empty path yields a discard logger.
func NewFile(path string, minLevel Level, service string) (*Logger, func() error, error) {
	if path == "" {
		return Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, minLevel, service), f.Close, nil
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.handler == nil {
		return Discard()
	}
	return &Logger{handler: slog.New(l.handler).With(args...).Handler()}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, msg, args...)
}

func (l *Logger) write(ctx context.Context, level Level, msg string, args ...any) {
	if l == nil || l.handler == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	slog.New(l.handler).Log(ctx, level, msg, args...)
}
