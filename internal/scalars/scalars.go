// Package scalars records named metric values per step as JSON lines in a
// run directory, and reads them back for the dashboard.
package scalars

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kingrea/xaicompare/internal/artifact"
)

// TypeScalar tags every point written by Writer.
const TypeScalar = "scalar"

// Point is one line of the journal.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Step  int     `json:"step"`
	Type  string  `json:"type"`
}

// Writer appends points to <dir>/scalars.jsonl. It is safe for concurrent use
// within one process.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter prepares a writer for the run directory dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("scalars: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scalars: ensure %s: %w", dir, err)
	}
	return &Writer{path: artifact.Scalars.Path(dir)}, nil
}

// Path returns the journal file.
func (w *Writer) Path() string {
	return w.path
}

// Log appends a single value of name at step.
func (w *Writer) Log(name string, value float64, step int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("scalars: name is required")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("scalars: %s at step %d is not finite", name, step)
	}
	line, err := json.Marshal(Point{Name: name, Value: value, Step: step, Type: TypeScalar})
	if err != nil {
		return fmt.Errorf("scalars: encode %s: %w", name, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("scalars: open %s: %w", w.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("scalars: write %s: %w", w.path, err)
	}
	return nil
}

// Read parses every non-blank line of the journal at path.
func Read(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scalars: read %s: %w", path, err)
	}
	var points []Point
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p Point
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("scalars: %s:%d: %w", filepath.Base(path), lineNo, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scalars: read %s: %w", path, err)
	}
	return points, nil
}

// ReadRun reads the journal of runDir. A run without one has no points.
func ReadRun(runDir string) ([]Point, error) {
	points, err := Read(artifact.Scalars.Path(runDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []Point{}, nil
	}
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []Point{}
	}
	return points, nil
}

// Filter keeps the points named name, in journal order.
func Filter(points []Point, name string) []Point {
	out := []Point{}
	for _, p := range points {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the distinct series names, sorted.
func Names(points []Point) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range points {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}
