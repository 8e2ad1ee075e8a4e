// Package linear provides a multinomial linear classifier adapter driven
// entirely by configured weights.
package linear

import (
	"fmt"
	"math"
	"strings"

	"github.com/kingrea/xaicompare/internal/adapter"
)

// Key registers the adapter.
const Key = "linear"

// Model scores each class as bias + weights·x and picks the highest score.
type Model struct {
	classes  []string
	features []string
	weights  [][]float64
	bias     []float64
	width    int
}

// Register installs the linear adapter factory.
func Register(reg *adapter.Registry) error {
	return reg.Register(Key, New)
}

// New builds a model from params:
//
//	classes:  [neg, pos]
//	features: [good, bad]          # optional
//	weights:  {neg: [..], pos: [..]}
//	bias:     [0, 0]               # optional
func New(cfg adapter.Config) (adapter.Adapter, error) {
	classes, err := cfg.Strings("classes")
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("linear: classes are required")
	}
	features, err := cfg.Strings("features")
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	weightMap, err := cfg.Map("weights")
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	m := &Model{classes: classes, features: features, width: -1}
	for _, class := range classes {
		row, err := weightMap.Floats(class)
		if err != nil {
			return nil, fmt.Errorf("linear: %w", err)
		}
		if row == nil {
			return nil, fmt.Errorf("linear: weights for class %s are required", class)
		}
		if m.width >= 0 && len(row) != m.width {
			return nil, fmt.Errorf("linear: class %s has %d weights, want %d", class, len(row), m.width)
		}
		m.width = len(row)
		m.weights = append(m.weights, row)
	}
	if len(features) > 0 && len(features) != m.width {
		return nil, fmt.Errorf("linear: %d feature names for %d weights", len(features), m.width)
	}
	bias, err := cfg.Floats("bias")
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	if bias == nil {
		bias = make([]float64, len(classes))
	}
	if len(bias) != len(classes) {
		return nil, fmt.Errorf("linear: %d bias terms for %d classes", len(bias), len(classes))
	}
	m.bias = bias
	return m, nil
}

func (m *Model) vector(sample any) ([]float64, error) {
	if named, ok := sample.(map[string]any); ok {
		if len(m.features) == 0 {
			return nil, fmt.Errorf("linear: named input needs configured features")
		}
		vec := make([]float64, m.width)
		for i, name := range m.features {
			if v, ok := named[name]; ok {
				f, ok := adapter.ToFloats([]any{v})
				if !ok {
					return nil, fmt.Errorf("linear: feature %s is %T", name, v)
				}
				vec[i] = f[0]
			}
		}
		return vec, nil
	}
	vec, ok := adapter.ToFloats(sample)
	if !ok {
		return nil, fmt.Errorf("linear: unsupported input %T", sample)
	}
	if len(vec) != m.width {
		return nil, fmt.Errorf("linear: input has %d values, want %d", len(vec), m.width)
	}
	return vec, nil
}

func (m *Model) scores(sample any) ([]float64, error) {
	vec, err := m.vector(sample)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m.classes))
	for c, row := range m.weights {
		s := m.bias[c]
		for i, w := range row {
			s += w * vec[i]
		}
		out[c] = s
	}
	return out, nil
}

// Predict returns the highest-scoring class per input.
func (m *Model) Predict(inputs []any) ([]any, error) {
	out := make([]any, len(inputs))
	for i, sample := range inputs {
		scores, err := m.scores(sample)
		if err != nil {
			return nil, fmt.Errorf("linear: sample %d: %w", i, err)
		}
		best := 0
		for c := range scores {
			if scores[c] > scores[best] {
				best = c
			}
		}
		out[i] = m.classes[best]
	}
	return out, nil
}

// PredictProbabilities applies softmax to the class scores. Any unusable
// input yields nil.
func (m *Model) PredictProbabilities(inputs []any) [][]float64 {
	out := make([][]float64, len(inputs))
	for i, sample := range inputs {
		scores, err := m.scores(sample)
		if err != nil {
			return nil
		}
		out[i] = softmax(scores)
	}
	return out
}

// ClassNames returns the configured classes.
func (m *Model) ClassNames() []string {
	return append([]string{}, m.classes...)
}

// FeatureNames returns the configured names, or positional f0..fn.
func (m *Model) FeatureNames() []string {
	return adapter.FirstFeatureNames(
		func() ([]string, error) { return append([]string{}, m.features...), nil },
		func() ([]string, error) {
			names := make([]string, m.width)
			for i := range names {
				names[i] = fmt.Sprintf("f%d", i)
			}
			return names, nil
		},
	)
}

// String describes the model shape.
func (m *Model) String() string {
	return fmt.Sprintf("linear(%s; %d features)", strings.Join(m.classes, ","), m.width)
}

func softmax(scores []float64) []float64 {
	peak := math.Inf(-1)
	for _, s := range scores {
		if s > peak {
			peak = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
