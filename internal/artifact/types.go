// Package artifact defines the filesystem-level contract of a run directory:
// the marker file whose presence makes a directory a run, and the columnar
// artifacts an explanation pipeline writes next to it. Each artifact has a
// stable identifier, a file name, and the columns a reader may rely on.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kingrea/xaicompare/internal/frame"
)

// Kind captures the storage shape of an artifact.
type Kind string

const (
	// KindMarker is the structured key-value metadata file defining a run.
	KindMarker Kind = "marker"
	// KindTable is a CSV file with a header row.
	KindTable Kind = "table"
	// KindJournal is an append-only file of JSON lines.
	KindJournal Kind = "journal"
)

// Ref declares a stable identifier and contract for an artifact.
type Ref struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	File        string
	// Columns lists the columns a valid table must carry.
	Columns []string
	// AnyColumn accepts any table with at least one column when Columns is empty.
	AnyColumn bool
}

// Path resolves the artifact location inside runDir.
func (r Ref) Path(runDir string) string {
	return filepath.Join(runDir, r.File)
}

// Validate ensures the reference is well-formed.
func (r Ref) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.File == "" {
		return fmt.Errorf("artifact: file name missing for %s", r.ID)
	}
	return nil
}

// CheckColumns verifies that f satisfies the table contract.
func (r Ref) CheckColumns(f *frame.Frame) error {
	if r.Kind != KindTable {
		return fmt.Errorf("artifact: %s is not a table", r.ID)
	}
	var missing []string
	for _, col := range r.Columns {
		if !f.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("artifact: %s missing column(s) %s", r.ID, strings.Join(missing, ", "))
	}
	if r.AnyColumn && len(f.Columns()) == 0 {
		return fmt.Errorf("artifact: %s has no columns", r.ID)
	}
	return nil
}

// Placeholder returns an empty frame carrying the required columns.
func (r Ref) Placeholder() *frame.Frame {
	return frame.New(r.Columns...)
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Check results.
type CheckResult struct {
	Ref   Ref
	Path  string
	State State
	Rows  int
	Err   error
}

func register(ref Ref) Ref {
	if refs == nil {
		refs = map[string]Ref{}
	}
	refs[ref.ID] = ref
	order = append(order, ref.ID)
	return ref
}

var (
	refs  map[string]Ref
	order []string
)

// Lookup returns a registered artifact reference by ID.
func Lookup(id string) (Ref, bool) {
	ref, ok := refs[id]
	return ref, ok
}

// All returns every artifact, marker first.
func All() []Ref {
	out := make([]Ref, 0, len(order))
	for _, id := range order {
		out = append(out, refs[id])
	}
	return out
}

// Tables returns the columnar artifacts in load order.
func Tables() []Ref {
	var out []Ref
	for _, id := range order {
		if ref := refs[id]; ref.Kind == KindTable {
			out = append(out, ref)
		}
	}
	return out
}

// Column names shared by the artifact contracts and their producers.
const (
	ColSampleID          = "sample_id"
	ColText              = "text"
	ColFeature           = "feature"
	ColMeanAbsImportance = "mean_abs_importance"
	ColAbsValue          = "abs_value"
	ColValue             = "value"
	ColYTrue             = "y_true"
	ColYPred             = "y_pred"
	ProbaPrefix          = "proba_"
)

// Canonical run artifacts.
var (
	Meta = register(Ref{
		ID:          "meta",
		Name:        "Run Metadata",
		Description: "meta.json marker with at least an id and a timestamp",
		Kind:        KindMarker,
		File:        "meta.json",
	})
	Predictions = register(Ref{
		ID:          "predictions",
		Name:        "Predictions",
		Description: "per-sample prediction values",
		Kind:        KindTable,
		File:        "predictions.csv",
		AnyColumn:   true,
	})
	GlobalImportance = register(Ref{
		ID:          "global_importance",
		Name:        "Global Importance",
		Description: "mean absolute attribution per feature",
		Kind:        KindTable,
		File:        "global_importance.csv",
		Columns:     []string{ColFeature, ColMeanAbsImportance},
	})
	LocalAttributions = register(Ref{
		ID:          "local_attributions",
		Name:        "Local Attributions",
		Description: "signed per-sample feature attributions",
		Kind:        KindTable,
		File:        "local_attributions.csv",
		Columns:     []string{ColSampleID, ColFeature, ColAbsValue, ColValue},
	})
	TextIndex = register(Ref{
		ID:          "text_index",
		Name:        "Text Index",
		Description: "source text keyed by sample id",
		Kind:        KindTable,
		File:        "text_index.csv",
		Columns:     []string{ColSampleID, ColText},
	})
	Scalars = register(Ref{
		ID:          "scalars",
		Name:        "Scalars",
		Description: "named metric values per step, one JSON object per line",
		Kind:        KindJournal,
		File:        "scalars.jsonl",
	})
)
