package runs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/xaicompare/internal/artifact"
)

// MarkerFile is the file whose presence defines a run directory.
var MarkerFile = artifact.Meta.File

// ReadMarker parses the marker inside dir as structured key-value data. JSON
// markers are accepted because JSON is valid YAML.
func ReadMarker(dir string) (map[string]any, error) {
	path := artifact.Meta.Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runs: read marker: %w", err)
	}
	var meta map[string]any
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("runs: parse marker %s: %w", path, err)
	}
	if meta == nil {
		return nil, fmt.Errorf("runs: marker %s is empty", path)
	}
	return meta, nil
}

// IsValidRun reports whether path is a directory with a parsable marker.
func IsValidRun(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = ReadMarker(path)
	return err == nil
}
