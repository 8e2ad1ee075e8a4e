package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile pairs a parsed adapter definition with its on-disk source.
type DefinitionFile struct {
	Definition AdapterDefinition
	Path       string
}

// ParseDefinitionYAML decodes and validates a single adapter definition payload.
func ParseDefinitionYAML(data []byte) (AdapterDefinition, error) {
	def, err := decodeDefinition(data)
	if err != nil {
		return AdapterDefinition{}, err
	}
	if err := def.Validate(); err != nil {
		return AdapterDefinition{}, err
	}
	return def, nil
}

// decodeDefinition reads exactly one YAML document. Unknown top-level
// fields are rejected so a misspelt "kind" cannot register a key that only
// fails later.
func decodeDefinition(data []byte) (AdapterDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return AdapterDefinition{}, fmt.Errorf("plugin: definition payload is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var def AdapterDefinition
	if err := dec.Decode(&def); err != nil {
		return AdapterDefinition{}, fmt.Errorf("plugin: decode definition: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return AdapterDefinition{}, fmt.Errorf("plugin: decode definition: %w", err)
		}
		return AdapterDefinition{}, fmt.Errorf("plugin: definition must be a single document")
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads a YAML file from disk and returns the parsed
// definition. A definition without a key takes the file name without its
// extension.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DefinitionFile{}, fmt.Errorf("plugin: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	def, err := decodeDefinition(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if def.Key == "" {
		def.Key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := def.Validate(); err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// listFiles returns the sorted regular files in dir accepted by match.
// Missing directories are treated as "no plugins" to simplify startup.
func listFiles(dir string, match func(string) bool) ([]string, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(trimmed, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func isGoFile(name string) bool {
	return filepath.Ext(name) == ".go" && !strings.HasSuffix(name, "_test.go")
}
