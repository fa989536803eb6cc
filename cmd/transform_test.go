package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meshclimate/internal/archive/archivetest"
	"github.com/sells-group/meshclimate/internal/ledger"
	"github.com/sells-group/meshclimate/internal/model"
	"github.com/sells-group/meshclimate/internal/pipeline"
)

func writeTestRegion(t *testing.T, fs afero.Fs, region string, yy int, codes ...string) {
	t.Helper()
	for _, c := range model.Measured {
		var blocks [][]string
		for _, code := range codes {
			blocks = append(blocks, archivetest.LocationBlock(code, yy, func(m, d int) int { return m + d }))
		}
		_, err := archivetest.Write(fs, "src", c, region, yy, blocks...)
		require.NoError(t, err)
	}
}

func testLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	led, err := openLedger(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { led.Close() }) //nolint:errcheck
	return led
}

func TestTransformCommand_Flags(t *testing.T) {
	tests := []struct {
		name, def string
	}{
		{"out", "out"},
		{"regions", "[]"},
		{"processes", "0"},
		{"keep-going", "false"},
		{"report", "overwritten.log"},
	}
	for _, tt := range tests {
		flag := transformCmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "transform should have --%s flag", tt.name)
		assert.Equal(t, tt.def, flag.DefValue, tt.name)
	}
	assert.Equal(t, "k", transformCmd.Flags().Lookup("regions").Shorthand)
	assert.Equal(t, "p", transformCmd.Flags().Lookup("processes").Shorthand)
}

func TestRunTransform(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestRegion(t, fs, "13", 20, "53394611", "53394612")
	writeTestRegion(t, fs, "01", 20, "64414277")
	led := testLedger(t)
	ctx := context.Background()

	opts := transformOptions{Source: "src", OutDir: "out", Report: "overwritten.log"}
	results, err := runTransform(ctx, fs, led, opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ok, err := afero.Exists(fs, filepath.Join("out", "5339", "533946", "53394612.json"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Second run skips everything and says so in the report.
	_, err = runTransform(ctx, fs, led, opts)
	require.NoError(t, err)
	b, err := afero.ReadFile(fs, "overwritten.log")
	require.NoError(t, err)
	assert.Equal(t, "[01] 1 skipped, 0 written\n64414277\n\n[13] 2 skipped, 0 written\n53394611\n53394612\n\n", string(b))

	runs, err := led.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ledger.StatusComplete, runs[0].Status)
	assert.Equal(t, 3, runs[0].Skipped+runs[1].Skipped)
	assert.Equal(t, 3, runs[0].Written+runs[1].Written)
}

func TestRunTransform_RegionFilter(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestRegion(t, fs, "13", 20, "53394611")
	writeTestRegion(t, fs, "01", 20, "64414277")

	results, err := runTransform(context.Background(), fs, nil, transformOptions{
		Source: "src", OutDir: "out", Report: "overwritten.log", Regions: []string{"01"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "01", results[0].Region)

	_, err = runTransform(context.Background(), fs, nil, transformOptions{
		Source: "src", OutDir: "out", Report: "overwritten.log", Regions: []string{"99"},
	})
	assert.True(t, errors.Is(err, pipeline.ErrUnknownRegion))
}

func TestRunTransform_FailureIsRecorded(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestRegion(t, fs, "13", 20, "53394611")
	require.NoError(t, fs.Remove(filepath.Join("src", "mssd1320.dat")))
	led := testLedger(t)

	_, err := runTransform(context.Background(), fs, led, transformOptions{Source: "src", OutDir: "out", Report: "overwritten.log"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrMissingComponent))

	runs, err := led.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ledger.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "missing a component")
}

func TestRunTransform_NoArchives(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("src", 0o755))

	_, err := runTransform(context.Background(), fs, nil, transformOptions{Source: "src", OutDir: "out"})
	assert.True(t, errors.Is(err, errNoArchives))
}

func TestPrintTransformSummary(t *testing.T) {
	var buf bytes.Buffer
	printTransformSummary(&buf, []model.RegionResult{
		{Region: "01", Written: 3, Skipped: []model.LocationCode{"64414277"}},
		{Region: "13", Written: 2},
	}, "overwritten.log")
	assert.Equal(t, "2 regions, 5 datasets written, 1 skipped (see overwritten.log)\n", buf.String())
}
