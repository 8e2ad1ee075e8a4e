package frame

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadCSVKeepsColumnOrder(t *testing.T) {
	input := "sample_id,feature,abs_value,value\n0,a,0.4,0.4\n0,b,0.2,-0.2\n1,a,0.1,0.1\n"
	f, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]string{"sample_id", "feature", "abs_value", "value"}, f.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if f.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Len())
	}
	v, err := f.Float(1, "value")
	if err != nil || v != -0.2 {
		t.Fatalf("value[1] = %v, %v; want -0.2", v, err)
	}
	id, err := f.Int(2, "sample_id")
	if err != nil || id != 1 {
		t.Fatalf("sample_id[2] = %v, %v; want 1", id, err)
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected empty input to fail")
	}
	if _, err := ReadCSV(strings.NewReader("a,a\n1,2\n")); err == nil {
		t.Fatalf("expected duplicate header to fail")
	}
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n")); err == nil {
		t.Fatalf("expected ragged row to fail")
	}
}

func TestReadFileMissingWrapsNotExist(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestWriteFileThenReadFile(t *testing.T) {
	f := New("sample_id", "text")
	if err := f.AppendRow("0", "hello, world"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.AppendRow("1", "line\nbreak"); err != nil {
		t.Fatalf("append: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "text_index.csv")
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(f.Rows(), got.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestAddColumnLengthMismatch(t *testing.T) {
	f := New()
	if err := f.AddColumn("sample_id", []string{"0", "1"}); err != nil {
		t.Fatalf("first column: %v", err)
	}
	if err := f.AddColumn("text", []string{"only one"}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if err := f.AddColumn("text", []string{"a", "b"}); err != nil {
		t.Fatalf("second column: %v", err)
	}
	if got, _ := f.Value(1, "text"); got != "b" {
		t.Fatalf("text[1] = %q", got)
	}
}

func TestIntRejectsFractions(t *testing.T) {
	f := New("n")
	_ = f.AppendRow("2.0")
	_ = f.AppendRow("2.5")
	if v, err := f.Int(0, "n"); err != nil || v != 2 {
		t.Fatalf("n[0] = %v, %v", v, err)
	}
	if _, err := f.Int(1, "n"); err == nil {
		t.Fatalf("expected fractional value to fail")
	}
}
