package adapter

import (
	"encoding"
	"fmt"
	"strconv"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/frame"
)

// TextIndexOptions carries the optional inputs of a text index build.
type TextIndexOptions struct {
	// YTrue holds the true label per sample. Omitted when nil.
	YTrue []any
	// RawText replaces the string form of each input when set.
	RawText []string
	// ClassNames overrides the adapter's own class names.
	ClassNames []string
}

// BuildTextIndex produces the text index for inputs, delegating to the
// adapter when it implements TextIndexer.
func BuildTextIndex(a Adapter, inputs []any, opts TextIndexOptions) (*frame.Frame, error) {
	if a == nil {
		return nil, fmt.Errorf("adapter: nil adapter")
	}
	if indexer, ok := a.(TextIndexer); ok {
		return indexer.BuildTextIndex(inputs, opts)
	}
	return DefaultTextIndex(a, inputs, opts)
}

// DefaultTextIndex builds a table with sample_id and text, plus y_true when
// labels are given, y_pred when Predict succeeds, and one proba_<class>
// column per class when the probability rows are exactly as wide as the class
// list. Optional columns whose length does not match the inputs are omitted.
func DefaultTextIndex(a Adapter, inputs []any, opts TextIndexOptions) (*frame.Frame, error) {
	n := len(inputs)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	f := frame.New()
	if err := f.AddColumn(artifact.ColSampleID, ids); err != nil {
		return nil, err
	}

	texts := opts.RawText
	if texts == nil {
		texts = SampleTexts(inputs)
	} else if len(texts) != n {
		return nil, fmt.Errorf("adapter: %d raw texts for %d inputs", len(texts), n)
	}
	if err := f.AddColumn(artifact.ColText, texts); err != nil {
		return nil, err
	}

	if opts.YTrue != nil && len(opts.YTrue) == n {
		_ = f.AddColumn(artifact.ColYTrue, stringify(opts.YTrue))
	}
	if preds, err := a.Predict(inputs); err == nil && len(preds) == n {
		_ = f.AddColumn(artifact.ColYPred, stringify(preds))
	}

	classes := opts.ClassNames
	if classes == nil {
		classes = a.ClassNames()
	}
	if len(classes) == 0 {
		return f, nil
	}
	proba := a.PredictProbabilities(inputs)
	if proba == nil || len(proba) != n {
		return f, nil
	}
	for _, row := range proba {
		if len(row) != len(classes) {
			return f, nil
		}
	}
	for c, class := range classes {
		col := make([]string, n)
		for i, row := range proba {
			col[i] = strconv.FormatFloat(row[c], 'g', -1, 64)
		}
		if err := f.AddColumn(artifact.ProbaPrefix+class, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// SampleTexts converts each input to text. A sample that cannot be coerced
// through its own string form sends the whole batch through fmt.Sprint.
func SampleTexts(inputs []any) []string {
	out, err := coerceAll(inputs)
	if err != nil {
		return stringify(inputs)
	}
	return out
}

func coerceAll(inputs []any) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("adapter: coerce sample: %v", r)
		}
	}()
	out = make([]string, len(inputs))
	for i, v := range inputs {
		switch x := v.(type) {
		case string:
			out[i] = x
		case []byte:
			out[i] = string(x)
		case encoding.TextMarshaler:
			b, err := x.MarshalText()
			if err != nil {
				return nil, fmt.Errorf("adapter: sample %d: %w", i, err)
			}
			out[i] = string(b)
		case fmt.Stringer:
			out[i] = x.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func stringify(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}
