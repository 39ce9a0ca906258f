// Package logging wraps log/slog with dbckit-specific helpers so every
// component logs with the same field names.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with table-oriented helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler at info level writing to stderr is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable lines to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger writing JSON lines to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// New builds a Logger from configuration values. format is "text" or "json".
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextLogger(w, lvl), nil
	case "json":
		return NewJSONLogger(w, lvl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// WithTable tags every record with the table name.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{Logger: l.Logger.With("table", name)}
}

// WithFile tags every record with a file path.
func (l *Logger) WithFile(path string) *Logger {
	return &Logger{Logger: l.Logger.With("file", path)}
}

// LogDecode logs the outcome of decoding a table.
func (l *Logger) LogDecode(ctx context.Context, records, fields, stringBlockSize uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "table decoded",
		"records", records,
		"fields", fields,
		"string_block_size", stringBlockSize,
	)
}

// LogEncode logs the outcome of encoding a table.
func (l *Logger) LogEncode(ctx context.Context, records, stringBlockSize uint32, policy string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "table encoded",
		"records", records,
		"string_block_size", stringBlockSize,
		"string_policy", policy,
	)
}
