// Package logger provides the structured, per-process logger used by every
// scriptoria node (name node, storage node, client). Unlike a package-level
// singleton, a *Logger is constructed once per process and threaded through
// context.Context into every connection handler and background task.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level mirrors slog's levels with the node-local names used in the
// log line format: [timestamp] [level] [ip:port] [user] message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config controls where and how a node's logger writes.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

// Logger wraps a *slog.Logger. It is a plain value owned by the node that
// created it (NameServer, StorageServer, client session) and is never
// reached through a package-level variable.
type Logger struct {
	slog *slog.Logger
	out  io.Closer
}

// New builds a Logger from Config. Callers should defer Close() on the
// returned Logger if Output names a file.
func New(cfg Config) (*Logger, error) {
	var w io.Writer
	var closer io.Closer
	useColor := false

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		w = os.Stdout
		useColor = isTerminal(os.Stdout.Fd())
	case "stderr":
		w = os.Stderr
		useColor = isTerminal(os.Stderr.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %q: %w", cfg.Output, err)
		}
		w = f
		closer = f
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.Level).slogLevel())
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewColorTextHandler(w, opts, useColor)
	}

	return &Logger{slog: slog.New(handler), out: closer}, nil
}

// Close releases the underlying file, if the logger writes to one.
func (l *Logger) Close() error {
	if l.out != nil {
		return l.out.Close()
	}
	return nil
}

// With returns a derived Logger carrying the given structured fields on
// every subsequent call, mirroring slog.Logger.With.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), out: l.out}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// contextKey is unexported so no other package can collide with it.
type contextKey struct{}

var loggerKey = contextKey{}

// WithContext attaches l to ctx for retrieval deeper in a call chain
// (connection handlers, the liveness monitor, control-channel readers).
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the Logger stored in ctx, or a stderr fallback logger
// if none was attached — callers should never nil-check the result.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
			return l
		}
	}
	return fallback
}

var fallback = mustFallback()

func mustFallback() *Logger {
	l, err := New(Config{Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}
