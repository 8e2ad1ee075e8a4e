package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestJSONHandlerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	if _, err := Init(Options{Level: "info", Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("init: %v", err)
	}
	New("runs").Debug("hidden")
	New("runs").Info("run resolved", "path", "runs/a")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["component"] != "runs" || entry["path"] != "runs/a" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestTextHandlerWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(Options{Level: "debug", Format: "text", Writer: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	slog.New(h).Warn("plugin skipped", "plugin", "script:x.go")
	out := buf.String()
	if !strings.Contains(out, "plugin skipped") || !strings.Contains(out, "plugin=script:x.go") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes, got %q", out)
	}
	if _, err := NewHandler(Options{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestOpenFileAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(dir)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := f.WriteString("line\n"); err != nil {
			t.Fatalf("write: %v", err)
		}
		f.Close()
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "line\nline\n" {
		t.Fatalf("unexpected content %q", data)
	}
}
