package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadCSV decodes a header row followed by data rows.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("frame: missing header row")
		}
		return nil, fmt.Errorf("frame: read header: %w", err)
	}
	f := New()
	for _, name := range header {
		if err := f.AddColumn(name, nil); err != nil {
			return nil, err
		}
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame: read row %d: %w", f.Len()+1, err)
		}
		if err := f.AppendRow(record...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadFile opens path and decodes it with ReadCSV. Errors wrap the
// underlying fs error so callers can test for fs.ErrNotExist.
func ReadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frame: open %s: %w", path, err)
	}
	defer file.Close()
	f, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("frame: %s: %w", path, err)
	}
	return f, nil
}

// WriteCSV encodes the header followed by every row.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns()); err != nil {
		return fmt.Errorf("frame: write header: %w", err)
	}
	for i := 0; i < f.Len(); i++ {
		if err := writer.Write(f.Row(i)); err != nil {
			return fmt.Errorf("frame: write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the frame to path, creating parent directories.
func (f *Frame) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("frame: ensure dir for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("frame: create %s: %w", path, err)
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
