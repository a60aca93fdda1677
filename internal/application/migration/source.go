package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceNotFound marks an export that does not exist. The pipeline skips
// the step instead of failing.
var ErrSourceNotFound = errors.New("migration: export not found")

// Source loads the records of one named export (e.g. "invoices.json").
type Source interface {
	Load(ctx context.Context, name string) ([]Record, error)
	String() string
}

// DirSource reads JSON exports from a local directory.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) String() string { return s.Dir }

func (s *DirSource) Load(ctx context.Context, name string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, filepath.Clean("/"+strings.TrimSpace(name)))

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	recs, err := ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
