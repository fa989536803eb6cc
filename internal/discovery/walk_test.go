package discovery

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchives(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		"src/13/mstm1320.dat",
		"src/13/MSPR1320.DAT",
		"src/01/mstm0120.dat",
		"src/01/readme.txt",
		"src/01/notes",
	} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}

	paths, err := Archives(fs, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("src", "01", "mstm0120.dat"),
		filepath.Join("src", "13", "MSPR1320.DAT"),
		filepath.Join("src", "13", "mstm1320.dat"),
	}, paths)
}

func TestArchives_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("src", 0o755))

	paths, err := Archives(fs, "src")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestArchives_MissingRoot(t *testing.T) {
	_, err := Archives(afero.NewMemMapFs(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery: walk nope")
}
