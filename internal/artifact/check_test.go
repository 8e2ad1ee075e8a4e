package artifact

import (
	"os"
	"path/filepath"
	"testing"
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

func TestCheckStates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, Meta.Path(dir), `{"id": "r1", "timestamp": "2024-01-01"}`)
	writeFile(t, GlobalImportance.Path(dir), "feature,mean_abs_importance\na,0.5\nb,0.1\n")
	writeFile(t, LocalAttributions.Path(dir), "sample_id,feature\n0,a\n")

	if got := Check(dir, Meta); got.State != StateReady {
		t.Fatalf("meta state = %s, err %v", got.State, got.Err)
	}
	gi := Check(dir, GlobalImportance)
	if gi.State != StateReady || gi.Rows != 2 {
		t.Fatalf("global importance = %s rows=%d err=%v", gi.State, gi.Rows, gi.Err)
	}
	if got := Check(dir, LocalAttributions); got.State != StateInvalid || got.Err == nil {
		t.Fatalf("expected local attributions to be invalid, got %s", got.State)
	}
	writeFile(t, Scalars.Path(dir), `{"name":"loss","value":1,"step":0,"type":"scalar"}`+"\n")
	if got := Check(dir, Scalars); got.State != StateReady {
		t.Fatalf("scalars state = %s", got.State)
	}
	if got := Check(dir, Predictions); got.State != StateMissing {
		t.Fatalf("expected predictions missing, got %s", got.State)
	}
}

func TestCheckRunCoversCatalog(t *testing.T) {
	results := CheckRun(t.TempDir())
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if last := results[len(results)-1]; last.Ref.ID != Scalars.ID {
		t.Fatalf("expected scalars last, got %s", last.Ref.ID)
	}
	if results[0].Ref.ID != Meta.ID {
		t.Fatalf("expected marker first, got %s", results[0].Ref.ID)
	}
	for _, r := range results {
		if r.State != StateMissing {
			t.Fatalf("%s: expected missing, got %s", r.Ref.ID, r.State)
		}
	}
}

func TestLookupAndPlaceholder(t *testing.T) {
	ref, ok := Lookup("text_index")
	if !ok {
		t.Fatalf("text_index not registered")
	}
	ph := ref.Placeholder()
	if ph.Len() != 0 || !ph.Has(ColSampleID) || !ph.Has(ColText) {
		t.Fatalf("unexpected placeholder columns %v", ph.Columns())
	}
	if err := ref.CheckColumns(ph); err != nil {
		t.Fatalf("placeholder should satisfy its own contract: %v", err)
	}
	if err := Predictions.CheckColumns(Predictions.Placeholder()); err == nil {
		t.Fatalf("predictions placeholder has no columns and should fail the contract")
	}
}
