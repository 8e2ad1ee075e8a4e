package runs

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// DefaultBaseDir holds candidate run directories when nothing else is configured.
	DefaultBaseDir = "runs"
	// FallbackName is the subdirectory of the base dir consulted last.
	FallbackName = "_latest"
	// QueryKey is the query parameter naming a run.
	QueryKey = "run"

	argSeparator = "--"
	runFlag      = "--run"
)

// Source names where a selection came from.
type Source string

const (
	SourceArgument Source = "argument"
	SourceQuery    Source = "query"
	SourceLatest   Source = "latest"
	SourceFallback Source = "fallback"
	SourceOverride Source = "override"
)

// Selection is the outcome of resolution. An empty Path means nothing was
// selectable.
type Selection struct {
	Path   string
	Source Source
}

// Empty reports whether no run was selected.
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.Path) == ""
}

// ParamStore exposes the query parameters of the surrounding UI context.
type ParamStore interface {
	QueryParams() (url.Values, error)
}

// ParamStoreFunc adapts a function to ParamStore.
type ParamStoreFunc func() (url.Values, error)

// QueryParams implements ParamStore.
func (f ParamStoreFunc) QueryParams() (url.Values, error) {
	return f()
}

// ParseRunArg extracts the --run value from a raw argument list. When the
// separator token is present only the arguments after it are scanned;
// otherwise the whole list is. Both "--run value" and "--run=value" are
// accepted. def is returned when no non-empty value is found.
func ParseRunArg(args []string, def string) string {
	scan := args
	for i, arg := range args {
		if arg == argSeparator {
			scan = args[i+1:]
			break
		}
	}
	for i, arg := range scan {
		if arg == runFlag {
			if i+1 < len(scan) {
				if v := strings.TrimSpace(scan[i+1]); v != "" {
					return v
				}
			}
			return def
		}
		if strings.HasPrefix(arg, runFlag+"=") {
			if v := strings.TrimSpace(strings.TrimPrefix(arg, runFlag+"=")); v != "" {
				return v
			}
			return def
		}
	}
	return def
}

// RunFromQuery reads the run parameter from store. Any failure of the store,
// including a panic, is treated as an absent value.
func RunFromQuery(store ParamStore) (run string) {
	if store == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			run = ""
		}
	}()
	params, err := store.QueryParams()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params.Get(QueryKey))
}

// LatestFinder locates the most recent run under a base directory.
type LatestFinder func(base string) (string, bool)

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLatestFinder replaces the directory scan used for the latest-run source.
func WithLatestFinder(fn LatestFinder) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.latest = fn
		}
	}
}

// WithLogger attaches a logger for resolution decisions.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver picks the run directory for one dashboard invocation. Sources are
// consulted in order: command argument, query parameter, most recent valid
// run under the base dir, then <base>/_latest.
type Resolver struct {
	base   string
	args   []string
	params ParamStore
	latest LatestFinder
	logger *slog.Logger
}

// NewResolver builds a resolver over base. An empty base falls back to
// DefaultBaseDir.
func NewResolver(base string, args []string, params ParamStore, opts ...ResolverOption) *Resolver {
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseDir
	}
	r := &Resolver{
		base:   base,
		args:   append([]string{}, args...),
		params: params,
		latest: FindLatestRun,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// BaseDir returns the run-collection directory.
func (r *Resolver) BaseDir() string {
	return r.base
}

// Fallback returns the fixed last-resort path.
func (r *Resolver) Fallback() string {
	return filepath.Join(r.base, FallbackName)
}

// Candidate evaluates the sources in precedence order without applying an
// interactive override. The selection is empty when every source is absent.
func (r *Resolver) Candidate() Selection {
	if v := ParseRunArg(r.args, ""); v != "" {
		return Selection{Path: v, Source: SourceArgument}
	}
	if v := RunFromQuery(r.params); v != "" {
		return Selection{Path: v, Source: SourceQuery}
	}
	if v, ok := r.latest(r.base); ok && v != "" {
		return Selection{Path: v, Source: SourceLatest}
	}
	if fallback := r.Fallback(); IsValidRun(fallback) {
		return Selection{Path: fallback, Source: SourceFallback}
	}
	return Selection{}
}

// Resolve returns the run to load. A non-empty override replaces whichever
// candidate was chosen. ErrNoRun is returned when nothing is selectable; the
// caller must stop rendering in that case.
func (r *Resolver) Resolve(override string) (Selection, error) {
	sel := r.Candidate()
	if v := strings.TrimSpace(override); v != "" && v != sel.Path {
		r.logger.Debug("override replaces candidate", "candidate", sel.Path, "source", sel.Source, "override", v)
		sel = Selection{Path: v, Source: SourceOverride}
	}
	if sel.Empty() {
		return Selection{}, fmt.Errorf("%w under %s", ErrNoRun, r.base)
	}
	r.logger.Info("run resolved", "path", sel.Path, "source", sel.Source)
	return sel, nil
}
