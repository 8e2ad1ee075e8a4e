// Package frame holds the small columnar table type that run artifacts are
// parsed into. Cells are kept as the strings found on disk; typed accessors
// convert on demand so loading never reinterprets the source data.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame is an ordered set of equally long string columns.
type Frame struct {
	columns []string
	index   map[string]int
	data    [][]string
	rows    int
}

// New returns an empty frame with the given column order.
func New(columns ...string) *Frame {
	f := &Frame{index: map[string]int{}}
	for _, name := range columns {
		_ = f.AddColumn(name, nil)
	}
	return f
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	if f == nil {
		return nil
	}
	return append([]string{}, f.columns...)
}

// Len reports the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Has reports whether the frame carries the named column.
func (f *Frame) Has(column string) bool {
	if f == nil {
		return false
	}
	_, ok := f.index[column]
	return ok
}

// AddColumn appends a column. The values must match the current row count,
// except on a frame without columns, where they define it.
func (f *Frame) AddColumn(name string, values []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("frame: column name is required")
	}
	if _, exists := f.index[name]; exists {
		return fmt.Errorf("frame: duplicate column %s", name)
	}
	if len(f.columns) == 0 {
		f.rows = len(values)
	} else if len(values) != f.rows {
		return fmt.Errorf("frame: column %s has %d values, want %d", name, len(values), f.rows)
	}
	f.index[name] = len(f.columns)
	f.columns = append(f.columns, name)
	f.data = append(f.data, append([]string{}, values...))
	return nil
}

// AppendRow adds one row; values are given in column order.
func (f *Frame) AppendRow(values ...string) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("frame: row has %d values, want %d", len(values), len(f.columns))
	}
	for i, value := range values {
		f.data[i] = append(f.data[i], value)
	}
	f.rows++
	return nil
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	if f == nil {
		return nil, false
	}
	idx, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return append([]string{}, f.data[idx]...), true
}

// Value returns a single cell.
func (f *Frame) Value(row int, column string) (string, bool) {
	if f == nil || row < 0 || row >= f.rows {
		return "", false
	}
	idx, ok := f.index[column]
	if !ok {
		return "", false
	}
	return f.data[idx][row], true
}

// Float parses a cell as float64.
func (f *Frame) Float(row int, column string) (float64, error) {
	raw, ok := f.Value(row, column)
	if !ok {
		return 0, fmt.Errorf("frame: no cell %s[%d]", column, row)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("frame: %s[%d]: %w", column, row, err)
	}
	return v, nil
}

// Int parses a cell as int. Integral floats such as "3.0" are accepted
// because columnar writers often emit integer ids that way.
func (f *Frame) Int(row int, column string) (int, error) {
	raw, ok := f.Value(row, column)
	if !ok {
		return 0, fmt.Errorf("frame: no cell %s[%d]", column, row)
	}
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != float64(int(v)) {
		return 0, fmt.Errorf("frame: %s[%d]: %q is not an integer", column, row, raw)
	}
	return int(v), nil
}

// Row returns a copy of one row in column order.
func (f *Frame) Row(row int) []string {
	if f == nil || row < 0 || row >= f.rows {
		return nil
	}
	out := make([]string, len(f.columns))
	for i := range f.columns {
		out[i] = f.data[i][row]
	}
	return out
}

// Rows returns every row in column order.
func (f *Frame) Rows() [][]string {
	out := make([][]string, f.Len())
	for i := range out {
		out[i] = f.Row(i)
	}
	return out
}
