package adapter

import "fmt"

// FeatureStrategy is one way of recovering feature names from a model.
type FeatureStrategy func() ([]string, error)

// FirstFeatureNames tries each strategy in order and returns the first
// non-empty result. Errors and panics fall through to the next strategy; when
// none succeed the result is empty, never nil.
func FirstFeatureNames(strategies ...FeatureStrategy) []string {
	for _, strategy := range strategies {
		if strategy == nil {
			continue
		}
		if names, err := tryStrategy(strategy); err == nil && len(names) > 0 {
			return names
		}
	}
	return []string{}
}

func tryStrategy(strategy FeatureStrategy) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			names, err = nil, fmt.Errorf("adapter: feature strategy panicked: %v", r)
		}
	}()
	return strategy()
}
