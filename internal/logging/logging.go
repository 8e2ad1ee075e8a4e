// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

const timeFormat = "2006-01-02 15:04:05.000Z07:00"

// Options selects the handler built by Init.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "text" (tint console output) or "json".
	Format string
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// NoColor disables ANSI colours in text output.
	NoColor bool
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", name)
	}
	return level, nil
}

// NewHandler builds the handler described by opts.
func NewHandler(opts Options) (slog.Handler, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case "", "text":
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: timeFormat,
			NoColor:    opts.NoColor,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Value.Kind() == slog.KindAny {
					if _, ok := a.Value.Any().(error); ok {
						return tint.Attr(9, a)
					}
				}
				return a
			},
		}), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
}

// Init installs the handler described by opts as the slog default.
func Init(opts Options) (*slog.Logger, error) {
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
