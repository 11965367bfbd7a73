// Package log sets up the process-wide slog logger for the dulang binaries.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Options selects level, format and destination.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// JSON switches to the JSON handler; set when GO_ENV=production.
	JSON bool
	// Output defaults to stdout.
	Output io.Writer
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log: unknown level %q", s)
}

// New builds a logger without touching the global one. Unknown levels
// fall back to info.
func New(opts Options) *slog.Logger {
	lvl, _ := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, hopts))
	}
	return slog.New(slog.NewTextHandler(out, hopts))
}

// Init installs the global logger once. Later calls are ignored.
func Init(opts Options) *slog.Logger {
	once.Do(func() {
		logger = New(opts)
		slog.SetDefault(logger)
	})
	return logger
}

// L returns the global logger, initialising it at info level if needed.
func L() *slog.Logger {
	return Init(Options{JSON: os.Getenv("GO_ENV") == "production"})
}

// With returns the global logger with extra attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
