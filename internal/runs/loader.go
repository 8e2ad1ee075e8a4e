package runs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/frame"
)

// Bundle is the parsed content of a run directory.
type Bundle struct {
	Path              string
	Meta              map[string]any
	Predictions       *frame.Frame
	GlobalImportance  *frame.Frame
	LocalAttributions *frame.Frame
	Text              *frame.Frame
	// Missing lists the IDs of artifacts absent on disk. Each is represented
	// by an empty frame carrying its required columns.
	Missing []string
}

// ID returns the marker's id field, or "" when absent.
func (b *Bundle) ID() string {
	if b == nil {
		return ""
	}
	if v, ok := b.Meta["id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Frame returns the table for an artifact ID.
func (b *Bundle) Frame(id string) *frame.Frame {
	if b == nil {
		return nil
	}
	switch id {
	case artifact.Predictions.ID:
		return b.Predictions
	case artifact.GlobalImportance.ID:
		return b.GlobalImportance
	case artifact.LocalAttributions.ID:
		return b.LocalAttributions
	case artifact.TextIndex.ID:
		return b.Text
	}
	return nil
}

// IsMissing reports whether the artifact was absent on disk.
func (b *Bundle) IsMissing(id string) bool {
	if b == nil {
		return false
	}
	for _, m := range b.Missing {
		if m == id {
			return true
		}
	}
	return false
}

// Load reads the marker and the four columnar artifacts of the run at path.
// A path that is not a directory or lacks a parsable marker fails with
// ErrInvalidRun. An absent artifact becomes an empty placeholder recorded in
// Bundle.Missing; a present artifact that cannot be parsed or lacks a
// required column fails with ErrArtifact.
func Load(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRun, path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRun, path)
	}
	meta, err := ReadMarker(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRun, path, err)
	}

	tables := artifact.Tables()
	frames := make([]*frame.Frame, len(tables))
	missing := make([]bool, len(tables))
	var g errgroup.Group
	for i, ref := range tables {
		g.Go(func() error {
			f, absent, err := loadTable(path, ref)
			if err != nil {
				return err
			}
			frames[i] = f
			missing[i] = absent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle := &Bundle{Path: path, Meta: meta}
	for i, ref := range tables {
		if missing[i] {
			bundle.Missing = append(bundle.Missing, ref.ID)
		}
		switch ref.ID {
		case artifact.Predictions.ID:
			bundle.Predictions = frames[i]
		case artifact.GlobalImportance.ID:
			bundle.GlobalImportance = frames[i]
		case artifact.LocalAttributions.ID:
			bundle.LocalAttributions = frames[i]
		case artifact.TextIndex.ID:
			bundle.Text = frames[i]
		}
	}
	return bundle, nil
}

func loadTable(dir string, ref artifact.Ref) (*frame.Frame, bool, error) {
	f, err := frame.ReadFile(ref.Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ref.Placeholder(), true, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %w", ErrArtifact, ref.ID, err)
	}
	if err := ref.CheckColumns(f); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	return f, false, nil
}
