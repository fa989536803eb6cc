// Package discovery finds raw archives under a source directory.
package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// ArchiveExt is matched case-insensitively against file names.
const ArchiveExt = ".dat"

// Archives walks root and returns every *.dat file, sorted lexically.
func Archives(fsys afero.Fs, root string) ([]string, error) {
	var paths []string
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(info.Name()), ArchiveExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: walk %s", root)
	}
	sort.Strings(paths)
	return paths, nil
}
