package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kingrea/xaicompare/internal/frame"
)

// Check inspects a single artifact inside runDir without loading it into a
// run bundle. Markers and journals are only checked for presence here;
// parsing them belongs to their readers.
func Check(runDir string, ref Ref) CheckResult {
	result := CheckResult{Ref: ref, Path: ref.Path(runDir)}
	if err := ref.Validate(); err != nil {
		result.State = StateError
		result.Err = err
		return result
	}
	info, err := os.Stat(result.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.State = StateMissing
			return result
		}
		result.State = StateError
		result.Err = err
		return result
	}
	if info.IsDir() {
		result.State = StateInvalid
		result.Err = fmt.Errorf("artifact: %s is a directory", result.Path)
		return result
	}
	if ref.Kind != KindTable {
		result.State = StateReady
		return result
	}
	f, err := frame.ReadFile(result.Path)
	if err != nil {
		result.State = StateInvalid
		result.Err = err
		return result
	}
	if err := ref.CheckColumns(f); err != nil {
		result.State = StateInvalid
		result.Err = err
		return result
	}
	result.State = StateReady
	result.Rows = f.Len()
	return result
}

// CheckRun runs Check for every artifact, marker first.
func CheckRun(runDir string) []CheckResult {
	var results []CheckResult
	for _, ref := range All() {
		results = append(results, Check(runDir, ref))
	}
	return results
}
