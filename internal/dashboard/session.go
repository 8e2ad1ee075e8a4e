// Package dashboard runs one render cycle of the comparison dashboard:
// resolve the run, load it, and summarise it for display. Front ends (the
// terminal UI and the HTTP server) share this package so both halt on the
// same conditions.
package dashboard

import (
	"errors"
	"log/slog"

	"github.com/kingrea/xaicompare/internal/logbook"
	"github.com/kingrea/xaicompare/internal/logging"
	"github.com/kingrea/xaicompare/internal/runs"
)

// Loader reads a run directory into a bundle.
type Loader func(path string) (*runs.Bundle, error)

// Result is the outcome of a successful render cycle.
type Result struct {
	Selection runs.Selection
	Bundle    *runs.Bundle
}

// Option customises a Session.
type Option func(*Session)

// WithLoader replaces runs.Load.
func WithLoader(load Loader) Option {
	return func(s *Session) {
		if load != nil {
			s.load = load
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithJournal records every cycle in a logbook.
func WithJournal(book *logbook.Logbook) Option {
	return func(s *Session) {
		s.journal = book
	}
}

// Session holds what a render cycle needs.
type Session struct {
	resolver *runs.Resolver
	load     Loader
	logger   *slog.Logger
	journal  *logbook.Logbook
}

// NewSession builds a session around resolver.
func NewSession(resolver *runs.Resolver, opts ...Option) *Session {
	s := &Session{
		resolver: resolver,
		load:     runs.Load,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Candidate returns the selection before any interactive override.
func (s *Session) Candidate() runs.Selection {
	return s.resolver.Candidate()
}

// BaseDir returns the run-collection directory.
func (s *Session) BaseDir() string {
	return s.resolver.BaseDir()
}

// RecentRuns lists valid runs, most recent first, capped at limit when
// limit is positive.
func (s *Session) RecentRuns(limit int) []string {
	list := runs.ListValidRuns(s.resolver.BaseDir())
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// Render resolves and loads the run for one cycle. It returns
// runs.ErrNoRun when nothing is selectable and runs.ErrInvalidRun (or
// runs.ErrArtifact) when the selection cannot be loaded; in both cases the
// caller must stop rendering. The selection is kept in the result of a
// failed load so the caller can name the offending path.
func (s *Session) Render(override string) (Result, error) {
	sel, err := s.resolver.Resolve(override)
	if err != nil {
		s.logger.Warn("no run selectable", "base", s.resolver.BaseDir())
		s.journal.Warn("no run selectable under %s", s.resolver.BaseDir())
		return Result{}, err
	}
	bundle, err := s.load(sel.Path)
	if err != nil {
		s.logger.Error("run load failed", "path", sel.Path, "source", sel.Source, "err", err)
		s.journal.Error("load %s (%s): %v", sel.Path, sel.Source, err)
		return Result{Selection: sel}, err
	}
	if len(bundle.Missing) > 0 {
		s.logger.Warn("run has missing artifacts", "path", sel.Path, "missing", bundle.Missing)
	}
	s.logger.Info("run loaded", "path", sel.Path, "source", sel.Source, "id", bundle.ID())
	s.journal.Info("loaded %s (%s)", sel.Path, sel.Source)
	return Result{Selection: sel, Bundle: bundle}, nil
}

// Severity classifies why a cycle halted.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Halt describes a stopped render cycle for display.
type Halt struct {
	Severity Severity
	Message  string
}

// HaltFor converts a Render error into the message shown to the user.
func HaltFor(sel runs.Selection, err error) Halt {
	switch {
	case errors.Is(err, runs.ErrNoRun):
		return Halt{
			Severity: SeverityWarning,
			Message:  "No run selected. Pass --run <dir>, add ?run=<dir>, or create a run folder with meta.json.",
		}
	case errors.Is(err, runs.ErrInvalidRun):
		return Halt{Severity: SeverityError, Message: "Invalid run directory: " + sel.Path}
	default:
		return Halt{Severity: SeverityError, Message: "Could not load run " + sel.Path + ": " + err.Error()}
	}
}
