package runs

import "errors"

var (
	// ErrNoRun reports that no resolution source produced a candidate.
	ErrNoRun = errors.New("runs: no run selectable")
	// ErrInvalidRun reports a candidate that is not a directory or whose
	// marker is missing or unparsable.
	ErrInvalidRun = errors.New("runs: invalid run directory")
	// ErrArtifact reports a present artifact that could not be read or does
	// not carry its required columns.
	ErrArtifact = errors.New("runs: artifact unreadable")
)
