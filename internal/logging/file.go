package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the process log written while the terminal dashboard owns
// the screen.
const FileName = "xaicompare.log"

// OpenFile creates (or reuses) the log file inside logsDir so users can
// inspect failures after the dashboard exits.
func OpenFile(logsDir string) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logsDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return f, nil
}
