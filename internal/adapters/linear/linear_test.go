package linear

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/xaicompare/internal/adapter"
)

func sentimentConfig() adapter.Config {
	return adapter.Config{
		"classes":  []any{"neg", "pos"},
		"features": []any{"good", "bad"},
		"weights": map[string]any{
			"neg": []any{-1.0, 2.0},
			"pos": []any{2.0, -1.0},
		},
	}
}

func TestPredictAndProbabilities(t *testing.T) {
	a, err := New(sentimentConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	inputs := []any{
		[]float64{1, 0},
		[]any{0, 1},
		map[string]any{"bad": 3},
	}
	preds, err := a.Predict(inputs)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if diff := cmp.Diff([]any{"pos", "neg", "neg"}, preds); diff != "" {
		t.Fatalf("predictions mismatch (-want +got):\n%s", diff)
	}
	proba := a.PredictProbabilities(inputs)
	if len(proba) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(proba))
	}
	for i, row := range proba {
		if math.Abs(row[0]+row[1]-1) > 1e-9 {
			t.Fatalf("row %d does not sum to 1: %v", i, row)
		}
	}
	if proba[0][1] <= proba[0][0] {
		t.Fatalf("expected pos to dominate row 0: %v", proba[0])
	}
}

func TestProbabilitiesAbsentOnBadInput(t *testing.T) {
	a, err := New(sentimentConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := a.PredictProbabilities([]any{[]float64{1, 0}, "text"}); got != nil {
		t.Fatalf("expected nil probabilities, got %v", got)
	}
	if _, err := a.Predict([]any{[]float64{1}}); err == nil {
		t.Fatalf("expected width mismatch to fail predict")
	}
}

func TestFeatureNamesFallBackToPositions(t *testing.T) {
	cfg := sentimentConfig()
	delete(cfg, "features")
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if diff := cmp.Diff([]string{"f0", "f1"}, a.FeatureNames()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
	named, _ := New(sentimentConfig())
	if diff := cmp.Diff([]string{"good", "bad"}, named.FeatureNames()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestNewValidatesShape(t *testing.T) {
	cases := map[string]adapter.Config{
		"no classes":     {"weights": map[string]any{}},
		"missing weight": {"classes": []any{"a", "b"}, "weights": map[string]any{"a": []any{1}}},
		"ragged weights": {"classes": []any{"a", "b"}, "weights": map[string]any{"a": []any{1}, "b": []any{1, 2}}},
		"bias length":    {"classes": []any{"a"}, "weights": map[string]any{"a": []any{1}}, "bias": []any{1, 2}},
		"feature count":  {"classes": []any{"a"}, "features": []any{"x", "y"}, "weights": map[string]any{"a": []any{1}}},
	}
	for name, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRegister(t *testing.T) {
	reg := adapter.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.New(Key, sentimentConfig()); err != nil {
		t.Fatalf("new via registry: %v", err)
	}
}
