package adapter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound reports a key that was never registered.
	ErrNotFound = errors.New("adapter: not found")
	// ErrDuplicate reports a second registration under an existing key.
	ErrDuplicate = errors.New("adapter: already registered")
	// ErrCycle reports derived keys whose kinds lead back to themselves.
	ErrCycle = errors.New("adapter: kind cycle")
)

// Factory constructs an adapter with the provided configuration.
type Factory func(Config) (Adapter, error)

// derivation binds a key to another key plus preset parameters.
type derivation struct {
	kind   string
	params Config
}

// Registry maintains known adapter factories. The first registration of a
// key wins; later attempts fail with ErrDuplicate and leave it untouched.
// A key is either a factory or a derivation of another key, never both.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	derived   map[string]derivation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}, derived: map[string]derivation{}}
}

// Register installs an adapter factory under key.
func (r *Registry) Register(key string, factory Factory) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("adapter: key is required")
	}
	if factory == nil {
		return fmt.Errorf("adapter: factory is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(key) {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.factories[key] = factory
	return nil
}

// Derive installs key as kind with params preset. The kind is looked up
// when the key is resolved, so it may be registered later.
func (r *Registry) Derive(key, kind string, params Config) error {
	key = strings.TrimSpace(key)
	kind = strings.TrimSpace(kind)
	if key == "" {
		return fmt.Errorf("adapter: key is required")
	}
	if kind == "" {
		return fmt.Errorf("adapter: kind is required for %s", key)
	}
	if kind == key {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, key, kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(key) {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.derived[key] = derivation{kind: kind, params: Config{}.Merge(params)}
	return nil
}

func (r *Registry) taken(key string) bool {
	_, isFactory := r.factories[key]
	_, isDerived := r.derived[key]
	return isFactory || isDerived
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(key string, factory Factory) {
	if err := r.Register(key, factory); err != nil {
		panic(err)
	}
}

// Resolve returns the factory registered under key. A derived key is
// followed to the factory at the end of its chain; the returned factory
// applies each preset from the innermost out, then the caller's config.
func (r *Registry) Resolve(key string) (Factory, error) {
	key = strings.TrimSpace(key)
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := []string{key}
	var presets []Config
	current := key
	for {
		if factory, ok := r.factories[current]; ok {
			if len(presets) == 0 {
				return factory, nil
			}
			return layered(factory, presets), nil
		}
		d, ok := r.derived[current]
		if !ok {
			if current == key {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
			}
			return nil, fmt.Errorf("%w: %s (kind of %s)", ErrNotFound, current, strings.Join(chain[:len(chain)-1], " -> "))
		}
		presets = append(presets, d.params)
		for _, seen := range chain {
			if seen == d.kind {
				return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(chain, d.kind), " -> "))
			}
		}
		chain = append(chain, d.kind)
		current = d.kind
	}
}

// layered wraps factory so presets[len-1] applies first and presets[0]
// (the requested key) overrides it.
func layered(factory Factory, presets []Config) Factory {
	return func(cfg Config) (Adapter, error) {
		merged := Config{}
		for i := len(presets) - 1; i >= 0; i-- {
			merged = merged.Merge(presets[i])
		}
		return factory(merged.Merge(cfg))
	}
}

// New resolves key and constructs an adapter with cfg.
func (r *Registry) New(key string, cfg Config) (Adapter, error) {
	factory, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	a, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("adapter: construct %s: %w", key, err)
	}
	if a == nil {
		return nil, fmt.Errorf("adapter: factory for %s returned nil", key)
	}
	return a, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories)+len(r.derived))
	for key := range r.factories {
		keys = append(keys, key)
	}
	for key := range r.derived {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories) + len(r.derived)
}
