// Package keyword provides a text classifier adapter that counts configured
// keywords per class.
package keyword

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kingrea/xaicompare/internal/adapter"
)

// Key registers the adapter.
const Key = "keyword"

// Model scores text by keyword hits per class.
type Model struct {
	classes    []string
	keywords   [][]string
	vocabulary []string
	smoothing  float64
}

// Register installs the keyword adapter factory.
func Register(reg *adapter.Registry) error {
	return reg.Register(Key, New)
}

// New builds a model from params: classes, keywords (class to word list),
// optional vocabulary and smoothing (default 1).
func New(cfg adapter.Config) (adapter.Adapter, error) {
	classes, err := cfg.Strings("classes")
	if err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("keyword: classes are required")
	}
	kw, err := cfg.Map("keywords")
	if err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	m := &Model{classes: classes}
	for _, class := range classes {
		words, err := kw.Strings(class)
		if err != nil {
			return nil, fmt.Errorf("keyword: %w", err)
		}
		for i := range words {
			words[i] = strings.ToLower(strings.TrimSpace(words[i]))
		}
		m.keywords = append(m.keywords, words)
	}
	if m.vocabulary, err = cfg.Strings("vocabulary"); err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	if m.smoothing, err = cfg.Float("smoothing", 1); err != nil {
		return nil, fmt.Errorf("keyword: %w", err)
	}
	if m.smoothing < 0 {
		return nil, fmt.Errorf("keyword: smoothing must be non-negative")
	}
	return m, nil
}

func tokens(text string) map[string]int {
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		counts[tok]++
	}
	return counts
}

func (m *Model) hits(sample any) ([]float64, error) {
	text, ok := sample.(string)
	if !ok {
		return nil, fmt.Errorf("keyword: input is %T, want string", sample)
	}
	counts := tokens(text)
	out := make([]float64, len(m.classes))
	for c, words := range m.keywords {
		for _, w := range words {
			out[c] += float64(counts[w])
		}
	}
	return out, nil
}

// Predict returns the class with the most keyword hits. Ties go to the
// earlier class.
func (m *Model) Predict(inputs []any) ([]any, error) {
	out := make([]any, len(inputs))
	for i, sample := range inputs {
		h, err := m.hits(sample)
		if err != nil {
			return nil, fmt.Errorf("keyword: sample %d: %w", i, err)
		}
		best := 0
		for c := range h {
			if h[c] > h[best] {
				best = c
			}
		}
		out[i] = m.classes[best]
	}
	return out, nil
}

// PredictProbabilities normalises smoothed hit counts. Without smoothing a
// text with no hits has no distribution, so the whole result is nil.
func (m *Model) PredictProbabilities(inputs []any) [][]float64 {
	out := make([][]float64, len(inputs))
	for i, sample := range inputs {
		h, err := m.hits(sample)
		if err != nil {
			return nil
		}
		var sum float64
		for c := range h {
			h[c] += m.smoothing
			sum += h[c]
		}
		if sum == 0 {
			return nil
		}
		for c := range h {
			h[c] /= sum
		}
		out[i] = h
	}
	return out
}

// ClassNames returns the configured classes.
func (m *Model) ClassNames() []string {
	return append([]string{}, m.classes...)
}

// FeatureNames returns the vocabulary, or the sorted keyword union.
func (m *Model) FeatureNames() []string {
	return adapter.FirstFeatureNames(
		func() ([]string, error) { return append([]string{}, m.vocabulary...), nil },
		func() ([]string, error) {
			seen := map[string]bool{}
			var names []string
			for _, words := range m.keywords {
				for _, w := range words {
					if w != "" && !seen[w] {
						seen[w] = true
						names = append(names, w)
					}
				}
			}
			sort.Strings(names)
			return names, nil
		},
	)
}
