package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/dashboard"
	"github.com/kingrea/xaicompare/internal/frame"
	"github.com/kingrea/xaicompare/internal/runs"
	"github.com/kingrea/xaicompare/internal/scalars"
)

type healthResponse struct {
	Status        ServerStatus `json:"status"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	RunsDir       string       `json:"runs_dir"`
}

type artifactStatus struct {
	ID    string         `json:"id"`
	File  string         `json:"file"`
	State artifact.State `json:"state"`
	Rows  int            `json:"rows,omitempty"`
	Error string         `json:"error,omitempty"`
}

type runEntry struct {
	Name      string           `json:"name"`
	Path      string           `json:"path"`
	Artifacts []artifactStatus `json:"artifacts"`
}

type runsResponse struct {
	Base string     `json:"base"`
	Runs []runEntry `json:"runs"`
}

type tablePayload struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated,omitempty"`
}

type runResponse struct {
	Path        string                  `json:"path"`
	Source      runs.Source             `json:"source"`
	ID          string                  `json:"id"`
	Meta        map[string]any          `json:"meta"`
	Missing     []string                `json:"missing"`
	Tables      map[string]tablePayload `json:"tables"`
	Importances []importanceRow         `json:"top_importances,omitempty"`
}

type importanceRow struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

type haltResponse struct {
	Severity dashboard.Severity `json:"severity"`
	Message  string             `json:"message"`
	Path     string             `json:"path,omitempty"`
}

type scalarsResponse struct {
	Path  string          `json:"path"`
	Names []string        `json:"names"`
	Data  []scalars.Point `json:"data"`
}

type adaptersResponse struct {
	Keys []string `json:"keys"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        s.Status(),
		UptimeSeconds: s.uptimeSeconds(),
		RunsDir:       s.settings.RunsDir,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	resp := runsResponse{Base: s.settings.RunsDir, Runs: []runEntry{}}
	for _, path := range runs.ListValidRuns(s.settings.RunsDir) {
		entry := runEntry{Name: filepath.Base(path), Path: path}
		for _, res := range artifact.CheckRun(path) {
			status := artifactStatus{ID: res.Ref.ID, File: res.Ref.File, State: res.State, Rows: res.Rows}
			if res.Err != nil {
				status.Error = res.Err.Error()
			}
			entry.Artifacts = append(entry.Artifacts, status)
		}
		resp.Runs = append(resp.Runs, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRun performs one render cycle. The request query plays the part of
// the page's parameter store, so ?run=<dir> selects a run.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	resolver := s.resolver(r)
	if !s.allowed(w, resolver.Candidate()) {
		return
	}
	session := dashboard.NewSession(resolver, dashboard.WithLogger(s.logger), dashboard.WithJournal(s.journal))
	result, err := session.Render("")
	if err != nil {
		writeHalt(w, result.Selection, err)
		return
	}
	b := result.Bundle
	resp := runResponse{
		Path:    result.Selection.Path,
		Source:  result.Selection.Source,
		ID:      b.ID(),
		Meta:    b.Meta,
		Missing: append([]string{}, b.Missing...),
		Tables:  map[string]tablePayload{},
	}
	for _, ref := range artifact.Tables() {
		resp.Tables[ref.ID] = s.table(b.Frame(ref.ID))
	}
	if top := topK(r.URL.Query().Get("top")); top > 0 {
		list, err := dashboard.TopImportances(b, top)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, imp := range list {
			resp.Importances = append(resp.Importances, importanceRow{Feature: imp.Feature, Value: imp.Value})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScalars returns the scalar journal of the run selected the same way
// as /api/run, optionally narrowed to one series with ?name=.
func (s *Server) handleScalars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	resolver := s.resolver(r)
	if !s.allowed(w, resolver.Candidate()) {
		return
	}
	sel, err := resolver.Resolve("")
	if err != nil {
		writeHalt(w, sel, err)
		return
	}
	if !runs.IsValidRun(sel.Path) {
		writeHalt(w, sel, runs.ErrInvalidRun)
		return
	}
	points, err := scalars.ReadRun(sel.Path)
	if err != nil {
		s.logger.Error("scalars read failed", "path", sel.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		points = scalars.Filter(points, name)
	}
	writeJSON(w, http.StatusOK, scalarsResponse{
		Path:  sel.Path,
		Names: append([]string{}, scalars.Names(points)...),
		Data:  points,
	})
}

func (s *Server) resolver(r *http.Request) *runs.Resolver {
	rawQuery := r.URL.RawQuery
	params := runs.ParamStoreFunc(func() (url.Values, error) {
		return url.ParseQuery(rawQuery)
	})
	return runs.NewResolver(s.settings.RunsDir, s.args, params, runs.WithLogger(s.logger))
}

// allowed rejects a query-selected run outside the runs directory. Runs
// pinned by the process arguments, the latest run and the fallback are
// trusted. It writes the response and returns false on rejection.
func (s *Server) allowed(w http.ResponseWriter, sel runs.Selection) bool {
	if sel.Source != runs.SourceQuery || within(s.settings.RunsDir, sel.Path) {
		return true
	}
	s.logger.Warn("run outside runs directory", "path", sel.Path, "base", s.settings.RunsDir)
	writeJSON(w, http.StatusForbidden, haltResponse{
		Severity: dashboard.SeverityError,
		Message:  "Run outside the runs directory: " + sel.Path,
		Path:     sel.Path,
	})
	return false
}

// within reports whether path is base or below it, after resolving
// symlinks where both exist.
func within(base, path string) bool {
	b, err := canonical(base)
	if err != nil {
		return false
	}
	p, err := canonical(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(b, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return resolveExisting(abs), nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of an
// absolute path and appends the rest unchanged.
func resolveExisting(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(abs))
}

func (s *Server) handleAdapters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	resp := adaptersResponse{Keys: []string{}}
	if s.catalog != nil {
		resp.Keys = append(resp.Keys, s.catalog.Keys()...)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) table(f *frame.Frame) tablePayload {
	if f == nil {
		return tablePayload{Columns: []string{}, Rows: [][]string{}}
	}
	rows := f.Rows()
	out := tablePayload{Columns: f.Columns(), Total: len(rows)}
	if limit := s.settings.MaxRows; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		out.Truncated = true
	}
	if rows == nil {
		rows = [][]string{}
	}
	out.Rows = rows
	return out
}

func writeHalt(w http.ResponseWriter, sel runs.Selection, err error) {
	halt := dashboard.HaltFor(sel, err)
	writeJSON(w, statusForError(err), haltResponse{
		Severity: halt.Severity,
		Message:  halt.Message,
		Path:     sel.Path,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, runs.ErrNoRun):
		return http.StatusNotFound
	case errors.Is(err, runs.ErrInvalidRun):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func topK(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
