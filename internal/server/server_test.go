package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/config"
	"github.com/kingrea/xaicompare/internal/runs"
	"github.com/kingrea/xaicompare/internal/scalars"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func makeRun(t *testing.T, base, name string, mod time.Time) string {
	t.Helper()
	dir := filepath.Join(base, name)
	writeFile(t, artifact.Meta.Path(dir), `{"id": "`+name+`", "timestamp": "2024-01-01T00:00:00"}`)
	writeFile(t, artifact.GlobalImportance.Path(dir), "feature,mean_abs_importance\ngood,0.2\nbad,0.7\nokay,0.1\n")
	if err := os.Chtimes(dir, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return dir
}

type staticCatalog []string

func (c staticCatalog) Keys() []string { return c }

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("%s: content type = %q", target, ct)
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s: decode: %v\n%s", target, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestRunEndpointLoadsLatest(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	makeRun(t, base, "old", now.Add(-2*time.Hour))
	latest := makeRun(t, base, "new", now.Add(-time.Hour))

	srv := NewServer(Settings{RunsDir: base, MaxRows: 2})
	var resp runResponse
	if code := get(t, srv.Handler(), "/api/run?top=1", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Path != latest || resp.Source != runs.SourceLatest || resp.ID != "new" {
		t.Fatalf("unexpected selection %+v", resp)
	}
	wantMissing := []string{artifact.Predictions.ID, artifact.LocalAttributions.ID, artifact.TextIndex.ID}
	if diff := cmp.Diff(wantMissing, resp.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	gi := resp.Tables[artifact.GlobalImportance.ID]
	if gi.Total != 3 || len(gi.Rows) != 2 || !gi.Truncated {
		t.Fatalf("unexpected global importance payload %+v", gi)
	}
	if len(resp.Importances) != 1 || resp.Importances[0].Feature != "bad" {
		t.Fatalf("unexpected top importances %+v", resp.Importances)
	}
	placeholder := resp.Tables[artifact.TextIndex.ID]
	if diff := cmp.Diff(artifact.TextIndex.Columns, placeholder.Columns); diff != "" {
		t.Fatalf("placeholder columns (-want +got):\n%s", diff)
	}
}

func TestRunEndpointQuerySelectsRun(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	older := makeRun(t, base, "older", now.Add(-2*time.Hour))
	makeRun(t, base, "newer", now.Add(-time.Hour))

	srv := NewServer(Settings{RunsDir: base})
	var resp runResponse
	target := "/api/run?" + url.Values{"run": {older}}.Encode()
	if code := get(t, srv.Handler(), target, &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Path != older || resp.Source != runs.SourceQuery {
		t.Fatalf("expected query selection, got %+v", resp)
	}
}

func TestRunEndpointArgumentBeatsQuery(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	pinned := makeRun(t, base, "pinned", now.Add(-3*time.Hour))
	other := makeRun(t, base, "other", now.Add(-time.Hour))

	srv := NewServer(Settings{RunsDir: base}, WithArgs([]string{"--run", pinned}))
	var resp runResponse
	target := "/api/run?" + url.Values{"run": {other}}.Encode()
	if code := get(t, srv.Handler(), target, &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Path != pinned || resp.Source != runs.SourceArgument {
		t.Fatalf("expected argument selection, got %+v", resp)
	}
}

func TestRunEndpointHalts(t *testing.T) {
	base := t.TempDir()
	srv := NewServer(Settings{RunsDir: base})

	var halt haltResponse
	if code := get(t, srv.Handler(), "/api/run", &halt); code != http.StatusNotFound {
		t.Fatalf("empty base: status = %d", code)
	}
	if halt.Severity != "warning" || halt.Message == "" {
		t.Fatalf("unexpected halt %+v", halt)
	}

	bogus := filepath.Join(base, "nope")
	target := "/api/run?" + url.Values{"run": {bogus}}.Encode()
	if code := get(t, srv.Handler(), target, &halt); code != http.StatusUnprocessableEntity {
		t.Fatalf("bogus run: status = %d", code)
	}
	if halt.Severity != "error" || halt.Path != bogus {
		t.Fatalf("unexpected halt %+v", halt)
	}

	broken := filepath.Join(base, "broken")
	writeFile(t, artifact.Meta.Path(broken), `{"id": "broken"}`)
	writeFile(t, artifact.GlobalImportance.Path(broken), "feature\nonly\n")
	target = "/api/run?" + url.Values{"run": {broken}}.Encode()
	if code := get(t, srv.Handler(), target, &halt); code != http.StatusInternalServerError {
		t.Fatalf("broken artifact: status = %d", code)
	}
}

func TestRunsEndpointReportsArtifacts(t *testing.T) {
	base := t.TempDir()
	run := makeRun(t, base, "only", time.Now())
	srv := NewServer(Settings{RunsDir: base})

	var resp runsResponse
	if code := get(t, srv.Handler(), "/api/runs", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Runs) != 1 || resp.Runs[0].Path != run || resp.Runs[0].Name != "only" {
		t.Fatalf("unexpected runs %+v", resp.Runs)
	}
	states := map[string]artifact.State{}
	for _, a := range resp.Runs[0].Artifacts {
		states[a.ID] = a.State
	}
	want := map[string]artifact.State{
		artifact.Meta.ID:              artifact.StateReady,
		artifact.Predictions.ID:       artifact.StateMissing,
		artifact.GlobalImportance.ID:  artifact.StateReady,
		artifact.LocalAttributions.ID: artifact.StateMissing,
		artifact.TextIndex.ID:         artifact.StateMissing,
		artifact.Scalars.ID:           artifact.StateMissing,
	}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestAdaptersEndpoint(t *testing.T) {
	srv := NewServer(Settings{}, WithCatalog(staticCatalog{"keyword", "linear"}))
	var resp adaptersResponse
	if code := get(t, srv.Handler(), "/api/adapters", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if diff := cmp.Diff([]string{"keyword", "linear"}, resp.Keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := NewServer(Settings{})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestServerStartAndHealth(t *testing.T) {
	srv := NewServer(Settings{Host: "127.0.0.1", Port: 0, RunsDir: t.TempDir()})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	if srv.Status() != StatusReady {
		t.Fatalf("status = %s", srv.Status())
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}

	res, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer res.Body.Close()
	var health healthResponse
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.StatusCode != http.StatusOK || health.Status != StatusReady {
		t.Fatalf("unexpected health %d %+v", res.StatusCode, health)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Project.Server.Port = 0
	s := SettingsFromConfig(cfg)
	if s.Port != DefaultPort || s.Host != cfg.Project.Server.Host {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.RunsDir != cfg.RunsDir() || s.MaxRows != DefaultMaxRows {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.URL() != "http://"+s.Address() {
		t.Fatalf("url = %s", s.URL())
	}
}

func TestRunEndpointConfinesQueryToRunsDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "runs")
	makeRun(t, base, "inside", time.Now())
	outside := makeRun(t, root, "elsewhere", time.Now())

	srv := NewServer(Settings{RunsDir: base})
	for _, run := range []string{outside, base + string(filepath.Separator) + ".." + string(filepath.Separator) + "elsewhere"} {
		var halt haltResponse
		target := "/api/run?" + url.Values{"run": {run}}.Encode()
		if code := get(t, srv.Handler(), target, &halt); code != http.StatusForbidden {
			t.Fatalf("%s: status = %d", run, code)
		}
		if halt.Severity != "error" || halt.Path != run {
			t.Fatalf("unexpected halt %+v", halt)
		}
	}

	pinned := NewServer(Settings{RunsDir: base}, WithArgs([]string{"--run", outside}))
	var resp runResponse
	if code := get(t, pinned.Handler(), "/api/run", &resp); code != http.StatusOK {
		t.Fatalf("pinned run outside base: status = %d", code)
	}
	if resp.Path != outside || resp.Source != runs.SourceArgument {
		t.Fatalf("unexpected selection %+v", resp)
	}
}

func TestWithin(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		path string
		want bool
	}{
		{path: base, want: true},
		{path: filepath.Join(base, "a", "b"), want: true},
		{path: filepath.Join(base, "..", filepath.Base(base)+"-sibling"), want: false},
		{path: filepath.Join(base, ".."), want: false},
		{path: filepath.Join(base, "a", "..", "..", "etc"), want: false},
	}
	for _, tc := range tests {
		if got := within(base, tc.path); got != tc.want {
			t.Fatalf("within(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestWithinFollowsSymlinks(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(base, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if within(base, link) {
		t.Fatalf("symlink to %s treated as inside %s", outside, base)
	}
	if within(base, filepath.Join(link, "not-yet")) {
		t.Fatalf("missing path below an escaping symlink treated as inside")
	}
	if !within(base, filepath.Join(base, "not-yet", "deeper")) {
		t.Fatalf("missing path below base treated as outside")
	}
}

func TestScalarsEndpoint(t *testing.T) {
	base := t.TempDir()
	run := makeRun(t, base, "trained", time.Now())
	w, err := scalars.NewWriter(run)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	for step, v := range []float64{0.9, 0.6, 0.4} {
		if err := w.Log("loss", v, step); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if err := w.Log("acc", 0.7, 2); err != nil {
		t.Fatalf("log: %v", err)
	}
	srv := NewServer(Settings{RunsDir: base})

	var resp scalarsResponse
	if code := get(t, srv.Handler(), "/api/scalars", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Path != run || len(resp.Data) != 4 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if diff := cmp.Diff([]string{"acc", "loss"}, resp.Names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	var loss scalarsResponse
	if code := get(t, srv.Handler(), "/api/scalars?name=loss", &loss); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := []scalars.Point{
		{Name: "loss", Value: 0.9, Step: 0, Type: scalars.TypeScalar},
		{Name: "loss", Value: 0.6, Step: 1, Type: scalars.TypeScalar},
		{Name: "loss", Value: 0.4, Step: 2, Type: scalars.TypeScalar},
	}
	if diff := cmp.Diff(want, loss.Data); diff != "" {
		t.Fatalf("loss series mismatch (-want +got):\n%s", diff)
	}
}

func TestScalarsEndpointHalts(t *testing.T) {
	base := t.TempDir()
	srv := NewServer(Settings{RunsDir: base})
	if code := get(t, srv.Handler(), "/api/scalars", nil); code != http.StatusNotFound {
		t.Fatalf("no run: status = %d", code)
	}
	target := "/api/scalars?" + url.Values{"run": {filepath.Join(base, "nope")}}.Encode()
	if code := get(t, srv.Handler(), target, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid run: status = %d", code)
	}

	run := makeRun(t, base, "quiet", time.Now())
	var resp scalarsResponse
	target = "/api/scalars?" + url.Values{"run": {run}}.Encode()
	if code := get(t, srv.Handler(), target, &resp); code != http.StatusOK {
		t.Fatalf("empty journal: status = %d", code)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Fatalf("expected empty data, got %+v", resp)
	}

	writeFile(t, artifact.Scalars.Path(run), "{broken\n")
	if code := get(t, srv.Handler(), target, nil); code != http.StatusInternalServerError {
		t.Fatalf("broken journal: status = %d", code)
	}
}
