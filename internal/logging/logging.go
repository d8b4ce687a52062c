// Package logging configures the process-wide slog logger: a log file at
// INFO and a console at ERROR, both lowered to DEBUG on request.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config configures the logger.
type Config struct {
	// File is the log file path. Empty disables the file output.
	File string

	// Console receives errors (default: os.Stderr).
	Console io.Writer

	// Debug lowers both outputs to DEBUG.
	Debug bool
}

// New builds a logger from cfg. The returned closer releases the log file.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	fileLevel, consoleLevel := slog.LevelInfo, slog.LevelError
	if cfg.Debug {
		fileLevel, consoleLevel = slog.LevelDebug, slog.LevelDebug
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
	}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: fileLevel}))
		closer = f
	}

	return slog.New(fanout(handlers)), closer, nil
}

// Setup builds a logger and installs it as the slog default.
func Setup(cfg Config) (io.Closer, error) {
	logger, closer, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, c := range h {
		if c.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, c := range h {
		if c.Enabled(ctx, r.Level) {
			errs = append(errs, c.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithGroup(name)
	}
	return out
}
