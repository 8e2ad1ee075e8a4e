package plugins

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/xaicompare/internal/adapter"
)

// Functions a script adapter may declare. AdapterKey and Predict are required.
const (
	scriptKeyFunc      = "AdapterKey"
	scriptPredictFunc  = "Predict"
	scriptClassesFunc  = "Classes"
	scriptFeaturesFunc = "Features"
	scriptProbaFunc    = "PredictProba"
)

// ScriptAdapter is an adapter interpreted from a Go source file. The file is
// a main package declaring:
//
//	func AdapterKey() string
//	func Predict(text string) string
//	func Classes() []string                // optional
//	func Features() []string               // optional
//	func PredictProba(text string) []float64 // optional
//
// Interpreter calls are serialised.
type ScriptAdapter struct {
	path     string
	key      string
	mu       sync.Mutex
	predict  func(string) string
	classes  func() []string
	features func() []string
	proba    func(string) []float64
}

// LoadScriptAdapter interprets path and binds its adapter functions.
func LoadScriptAdapter(path string) (*ScriptAdapter, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	keyFn, err := lookupFunc[func() string](i, scriptKeyFunc, true)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	sa := &ScriptAdapter{path: path}
	if sa.predict, err = lookupFunc[func(string) string](i, scriptPredictFunc, true); err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if sa.classes, err = lookupFunc[func() []string](i, scriptClassesFunc, false); err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if sa.features, err = lookupFunc[func() []string](i, scriptFeaturesFunc, false); err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if sa.proba, err = lookupFunc[func(string) []float64](i, scriptProbaFunc, false); err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if err := sa.call(func() { sa.key = strings.TrimSpace(keyFn()) }); err != nil {
		return nil, fmt.Errorf("plugin: %s: %s: %w", path, scriptKeyFunc, err)
	}
	if sa.key == "" {
		return nil, fmt.Errorf("plugin: %s: %s returned an empty key", path, scriptKeyFunc)
	}
	return sa, nil
}

// lookupFunc resolves name in the interpreter and asserts its signature. A
// missing optional function yields the zero value.
func lookupFunc[T any](i *interp.Interpreter, name string, required bool) (T, error) {
	var zero T
	value, err := i.Eval(name)
	if err != nil || !value.IsValid() {
		if required {
			return zero, fmt.Errorf("must define %s", name)
		}
		return zero, nil
	}
	fn, ok := value.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%s has signature %s, want %T", name, value.Type(), zero)
	}
	return fn, nil
}

func (s *ScriptAdapter) call(fn func()) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Key returns the key declared by the script.
func (s *ScriptAdapter) Key() string { return s.key }

// Path returns the script location.
func (s *ScriptAdapter) Path() string { return s.path }

// Registration installs the script under its declared key. Every factory
// call returns the same instance; params are ignored.
func (s *ScriptAdapter) Registration() Registration {
	return func(reg *adapter.Registry) error {
		return reg.Register(s.key, func(adapter.Config) (adapter.Adapter, error) {
			return s, nil
		})
	}
}

// Predict calls the script once per sample.
func (s *ScriptAdapter) Predict(inputs []any) ([]any, error) {
	texts := adapter.SampleTexts(inputs)
	out := make([]any, len(texts))
	err := s.call(func() {
		for i, text := range texts {
			out[i] = s.predict(text)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", s.key, err)
	}
	return out, nil
}

// PredictProbabilities returns nil when the script has no PredictProba or it
// fails.
func (s *ScriptAdapter) PredictProbabilities(inputs []any) [][]float64 {
	if s.proba == nil {
		return nil
	}
	texts := adapter.SampleTexts(inputs)
	out := make([][]float64, len(texts))
	if err := s.call(func() {
		for i, text := range texts {
			out[i] = s.proba(text)
		}
	}); err != nil {
		return nil
	}
	return out
}

// ClassNames returns the script's classes, or nil.
func (s *ScriptAdapter) ClassNames() []string {
	if s.classes == nil {
		return nil
	}
	var names []string
	if err := s.call(func() { names = s.classes() }); err != nil {
		return nil
	}
	return names
}

// FeatureNames returns the script's features, or the class names as a last
// resort for scripts that score one feature per class.
func (s *ScriptAdapter) FeatureNames() []string {
	return adapter.FirstFeatureNames(
		func() ([]string, error) {
			if s.features == nil {
				return nil, fmt.Errorf("no %s", scriptFeaturesFunc)
			}
			var names []string
			err := s.call(func() { names = s.features() })
			return names, err
		},
		func() ([]string, error) { return s.ClassNames(), nil },
	)
}
