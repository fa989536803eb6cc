// Package store persists merged datasets as one create-only file per
// location, partitioned by the 4- and 6-character prefixes of the code.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"

	"github.com/sells-group/meshclimate/internal/dataset"
	"github.com/sells-group/meshclimate/internal/model"
)

// Ext is the file extension of a persisted dataset.
const Ext = ".json"

// ErrNotFound is returned by Load when no dataset exists for a location.
var ErrNotFound = eris.New("store: dataset not found")

// Store writes and reads persisted datasets.
type Store interface {
	// Write persists ds unless a record for its location already exists.
	// It reports false, without error, on such a collision.
	Write(ds dataset.Dataset) (bool, error)
	Load(code model.LocationCode) (dataset.Dataset, error)
	Path(code model.LocationCode) string
}

// FileStore implements Store on an afero filesystem.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore returns a store rooted at root on fs.
func NewFileStore(fs afero.Fs, root string) *FileStore {
	return &FileStore{fs: fs, root: root}
}

// Path returns <root>/<code[0:4]>/<code[0:6]>/<code>.json.
func (s *FileStore) Path(code model.LocationCode) string {
	p4, p6 := code.Partitions()
	return filepath.Join(s.root, p4, p6, string(code)+Ext)
}

func (s *FileStore) Write(ds dataset.Dataset) (bool, error) {
	path := s.Path(ds.Location)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, eris.Wrapf(err, "store: mkdir for %s", ds.Location)
	}

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "store: create %s", path)
	}

	werr := dataset.Encode(f, ds)
	cerr := f.Close()
	if werr == nil && cerr != nil {
		werr = eris.Wrapf(cerr, "store: close %s", path)
	}
	if werr != nil {
		// A half-written record would otherwise be reported as a collision
		// on the next run.
		_ = s.fs.Remove(path)
		return false, eris.Wrapf(werr, "store: write %s", ds.Location)
	}
	return true, nil
}

func (s *FileStore) Load(code model.LocationCode) (dataset.Dataset, error) {
	path := s.Path(code)
	f, err := s.fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return dataset.Dataset{}, eris.Wrapf(ErrNotFound, "%s", path)
	}
	if err != nil {
		return dataset.Dataset{}, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return dataset.Decode(f, code)
}
