package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/xaicompare/internal/adapter"
)

// AdapterDefinition describes a configured adapter loaded from YAML.
//
// A definition binds a new key to an existing adapter kind plus a fixed set of
// parameters, so a trained model can be published by dropping a file into the
// plugins directory.
type AdapterDefinition struct {
	Key         string         `json:"key" yaml:"key"`
	Kind        string         `json:"kind" yaml:"kind"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version" yaml:"version"`
	Params      adapter.Config `json:"params,omitempty" yaml:"params,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def AdapterDefinition) Normalized() AdapterDefinition {
	clone := AdapterDefinition{
		Key:         strings.TrimSpace(def.Key),
		Kind:        strings.TrimSpace(def.Kind),
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     strings.TrimSpace(def.Version),
	}
	if len(def.Params) > 0 {
		clone.Params = make(adapter.Config, len(def.Params))
		for key, value := range def.Params {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Params[trimmed] = value
		}
	}
	return clone
}

// Validate ensures the definition is well-formed.
func (def AdapterDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Key == "" {
		return fmt.Errorf("plugin: key is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.Key)
	}
	if normalized.Kind == "" {
		return fmt.Errorf("plugin %s: kind is required", normalized.Key)
	}
	if normalized.Kind == normalized.Key {
		return fmt.Errorf("plugin %s: kind must name a different adapter", normalized.Key)
	}
	return nil
}

// Registration returns the step that installs the definition as a derived
// registry key. Its kind is resolved when an adapter is constructed, so
// definitions may be registered before the adapter family they build on; a
// chain of kinds that loops back fails at construction with adapter.ErrCycle.
func (def AdapterDefinition) Registration() Registration {
	normalized := def.Normalized()
	return func(reg *adapter.Registry) error {
		if err := normalized.Validate(); err != nil {
			return err
		}
		if err := reg.Derive(normalized.Key, normalized.Kind, normalized.Params); err != nil {
			return fmt.Errorf("plugin %s: %w", normalized.Key, err)
		}
		return nil
	}
}
