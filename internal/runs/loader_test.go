package runs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/xaicompare/internal/artifact"
)

func writeCompleteRun(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, MarkerFile), `{"id": "run-1", "timestamp": "2024-05-01T12:00:00", "model": "linear"}`)
	writeFile(t, artifact.Predictions.Path(dir), "sample_id,y_pred,proba_neg,proba_pos\n0,pos,0.2,0.8\n1,neg,0.9,0.1\n")
	writeFile(t, artifact.GlobalImportance.Path(dir), "feature,mean_abs_importance\ngood,0.7\nbad,0.3\n")
	writeFile(t, artifact.LocalAttributions.Path(dir), "sample_id,feature,abs_value,value\n0,good,0.5,0.5\n1,bad,0.4,-0.4\n")
	writeFile(t, artifact.TextIndex.Path(dir), "sample_id,text\n0,a good day\n1,a bad day\n")
}

func TestLoadReadsMarkerAndArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-1")
	writeCompleteRun(t, dir)

	b, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	wantMeta := map[string]any{"id": "run-1", "timestamp": "2024-05-01T12:00:00", "model": "linear"}
	if diff := cmp.Diff(wantMeta, b.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
	if b.ID() != "run-1" {
		t.Fatalf("id = %q", b.ID())
	}
	cols := map[string][]string{
		artifact.Predictions.ID:       {"sample_id", "y_pred", "proba_neg", "proba_pos"},
		artifact.GlobalImportance.ID:  {"feature", "mean_abs_importance"},
		artifact.LocalAttributions.ID: {"sample_id", "feature", "abs_value", "value"},
		artifact.TextIndex.ID:         {"sample_id", "text"},
	}
	for id, want := range cols {
		if diff := cmp.Diff(want, b.Frame(id).Columns()); diff != "" {
			t.Fatalf("%s columns mismatch (-want +got):\n%s", id, diff)
		}
		if b.Frame(id).Len() != 2 {
			t.Fatalf("%s rows = %d", id, b.Frame(id).Len())
		}
	}
	if len(b.Missing) != 0 {
		t.Fatalf("unexpected missing artifacts %v", b.Missing)
	}
}

func TestLoadWithoutMarkerIsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, artifact.TextIndex.Path(dir), "sample_id,text\n0,x\n")
	if _, err := Load(dir); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "absent")); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun for absent dir, got %v", err)
	}
	file := filepath.Join(dir, "file")
	writeFile(t, file, "x")
	if _, err := Load(file); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun for file path, got %v", err)
	}
}

func TestLoadEmptyMarkerIsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, MarkerFile), "")
	if _, err := Load(dir); !errors.Is(err, ErrInvalidRun) {
		t.Fatalf("expected ErrInvalidRun, got %v", err)
	}
}

func TestLoadMissingArtifactUsesPlaceholder(t *testing.T) {
	dir := t.TempDir()
	writeCompleteRun(t, dir)
	if err := os.Remove(artifact.LocalAttributions.Path(dir)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	b, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{artifact.LocalAttributions.ID}, b.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if !b.IsMissing(artifact.LocalAttributions.ID) {
		t.Fatalf("expected IsMissing")
	}
	if b.LocalAttributions.Len() != 0 || !b.LocalAttributions.Has("abs_value") {
		t.Fatalf("unexpected placeholder %v", b.LocalAttributions.Columns())
	}
}

func TestLoadMalformedArtifactFails(t *testing.T) {
	dir := t.TempDir()
	writeCompleteRun(t, dir)
	writeFile(t, artifact.GlobalImportance.Path(dir), "feature,importance\na,1\n")
	if _, err := Load(dir); !errors.Is(err, ErrArtifact) || errors.Is(err, ErrInvalidRun) {
		t.Fatalf("expected ErrArtifact only, got %v", err)
	}
}
