package runs

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ListValidRuns returns the immediate subdirectories of base that hold a
// valid marker, most recently modified first. Directories sharing a
// modification time keep the order os.ReadDir returns them in, which is by
// name on every supported platform but should not be relied upon. A missing
// or unreadable base yields no runs.
func ListValidRuns(base string) []string {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	type candidate struct {
		path    string
		modTime time.Time
	}
	var found []candidate
	for _, entry := range entries {
		path := filepath.Join(base, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		if !IsValidRun(path) {
			continue
		}
		found = append(found, candidate{path: path, modTime: info.ModTime()})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].modTime.After(found[j].modTime)
	})
	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.path)
	}
	return out
}

// FindLatestRun returns the most recently modified valid run under base.
func FindLatestRun(base string) (string, bool) {
	list := ListValidRuns(base)
	if len(list) == 0 {
		return "", false
	}
	return list[0], true
}
