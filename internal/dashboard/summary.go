package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/frame"
	"github.com/kingrea/xaicompare/internal/runs"
)

// Importance is one row of the global importance table.
type Importance struct {
	Feature string
	Value   float64
}

// Attribution is one feature's contribution to a single sample.
type Attribution struct {
	Feature string
	Value   float64
	Abs     float64
}

// TopImportances returns the k most important features, highest first.
// Equal values keep file order. k <= 0 returns every row.
func TopImportances(b *runs.Bundle, k int) ([]Importance, error) {
	f := b.GlobalImportance
	out := make([]Importance, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		name, _ := f.Value(i, artifact.ColFeature)
		v, err := f.Float(i, artifact.ColMeanAbsImportance)
		if err != nil {
			return nil, fmt.Errorf("dashboard: global importance: %w", err)
		}
		out = append(out, Importance{Feature: name, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// SampleAttributions returns the attributions for sampleID ordered by
// absolute value, largest first, capped at k when k is positive.
func SampleAttributions(b *runs.Bundle, sampleID, k int) ([]Attribution, error) {
	f := b.LocalAttributions
	var out []Attribution
	for i := 0; i < f.Len(); i++ {
		id, err := f.Int(i, artifact.ColSampleID)
		if err != nil {
			return nil, fmt.Errorf("dashboard: local attributions: %w", err)
		}
		if id != sampleID {
			continue
		}
		name, _ := f.Value(i, artifact.ColFeature)
		v, err := f.Float(i, artifact.ColValue)
		if err != nil {
			return nil, fmt.Errorf("dashboard: local attributions: %w", err)
		}
		abs, err := f.Float(i, artifact.ColAbsValue)
		if err != nil {
			return nil, fmt.Errorf("dashboard: local attributions: %w", err)
		}
		out = append(out, Attribution{Feature: name, Value: v, Abs: math.Abs(abs)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Abs > out[j].Abs })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// SampleText returns the source text of sampleID.
func SampleText(b *runs.Bundle, sampleID int) (string, bool) {
	f := b.Text
	for i := 0; i < f.Len(); i++ {
		if id, err := f.Int(i, artifact.ColSampleID); err == nil && id == sampleID {
			return f.Value(i, artifact.ColText)
		}
	}
	return "", false
}

// SampleIDs returns the distinct sample ids found in the text index and the
// local attributions, ascending. Unparsable ids are skipped.
func SampleIDs(b *runs.Bundle) []int {
	seen := map[int]bool{}
	for _, f := range []*frame.Frame{b.Text, b.LocalAttributions} {
		for i := 0; i < f.Len(); i++ {
			if id, err := f.Int(i, artifact.ColSampleID); err == nil {
				seen[id] = true
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MetaLines renders the marker as sorted "key: value" lines.
func MetaLines(b *runs.Bundle) []string {
	keys := make([]string, 0, len(b.Meta))
	for k := range b.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+formatValue(b.Meta[k]))
	}
	return lines
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
