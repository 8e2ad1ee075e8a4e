// Package adapter defines the capability contract model wrappers satisfy and
// the registry that maps short keys to adapter factories.
package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/xaicompare/internal/frame"
)

// Adapter wraps one model family behind a uniform prediction surface.
type Adapter interface {
	// Predict returns one prediction per input. Failures are returned to the caller.
	Predict(inputs []any) ([]any, error)
	// PredictProbabilities returns one row of class probabilities per input,
	// or nil when the model cannot produce them. It never fails.
	PredictProbabilities(inputs []any) [][]float64
	// ClassNames returns the ordered class labels, or nil when unknown.
	ClassNames() []string
	// FeatureNames returns the model's feature names, possibly empty.
	FeatureNames() []string
}

// TextIndexer is implemented by adapters that build their own text index
// instead of relying on DefaultTextIndex.
type TextIndexer interface {
	BuildTextIndex(inputs []any, opts TextIndexOptions) (*frame.Frame, error)
}

// Config represents adapter-specific parameters (opaque to the registry).
type Config map[string]any

// Merge returns a copy of c overlaid with other.
func (c Config) Merge(other Config) Config {
	out := Config{}
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String returns the value at key as a trimmed string.
func (c Config) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Strings returns the list at key. YAML decodes lists as []any, so both
// that and []string are accepted.
func (c Config) Strings(key string) ([]string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("adapter: %s[%d] is %T, want string", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("adapter: %s is %T, want a list of strings", key, v)
}

// Float returns the number at key, or def when absent.
func (c Config) Float(key string, def float64) (float64, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("adapter: %s is %T, want a number", key, v)
	}
	return f, nil
}

// Floats returns the numeric list at key.
func (c Config) Floats(key string) ([]float64, error) {
	return floatList(key, c[key])
}

// Map returns the nested mapping at key.
func (c Config) Map(key string) (Config, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case Config:
		return m, nil
	case map[string]any:
		return Config(m), nil
	}
	return nil, fmt.Errorf("adapter: %s is %T, want a mapping", key, v)
}

// Keys returns the mapping keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func floatList(key string, v any) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []float64:
		return append([]float64{}, list...), nil
	case []any:
		out := make([]float64, 0, len(list))
		for i, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("adapter: %s[%d] is %T, want a number", key, i, item)
			}
			out = append(out, f)
		}
		return out, nil
	}
	return nil, fmt.Errorf("adapter: %s is %T, want a list of numbers", key, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// ToFloats converts a single input sample into a numeric vector.
func ToFloats(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return x, true
	case []any:
		out, err := floatList("input", x)
		return out, err == nil
	}
	return nil, false
}
