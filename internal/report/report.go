// Package report writes the difference and skip reports. Both files are
// rewritten from scratch on every run.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"

	"github.com/sells-group/meshclimate/internal/dataset"
	"github.com/sells-group/meshclimate/internal/model"
)

// DifferenceColumns is the header row of the difference report.
var DifferenceColumns = []string{"region", "location", "date", "component", "persisted", "recomputed"}

// WriteDifferences writes diffs as CSV to path, sorted.
func WriteDifferences(fs afero.Fs, path string, diffs []model.Difference) error {
	model.SortDifferences(diffs)
	return writeFile(fs, path, func(w io.Writer) error {
		return EncodeDifferences(w, diffs)
	})
}

// EncodeDifferences writes the header row and one row per difference.
func EncodeDifferences(w io.Writer, diffs []model.Difference) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DifferenceColumns); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, d := range diffs {
		row := []string{
			d.Region,
			string(d.Location),
			d.Date,
			d.Component.String(),
			dataset.FormatValue(d.Component, d.Persisted),
			dataset.FormatValue(d.Component, d.Recomputed),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush")
}

// WriteSkipped writes the per-region list of locations whose dataset
// already existed.
func WriteSkipped(fs afero.Fs, path string, results []model.RegionResult) error {
	model.SortRegionResults(results)
	return writeFile(fs, path, func(w io.Writer) error {
		return EncodeSkipped(w, results)
	})
}

// EncodeSkipped renders one block per region: a "[code]" line with the
// count, the skipped codes one per line, then a blank line.
func EncodeSkipped(w io.Writer, results []model.RegionResult) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		fmt.Fprintf(bw, "[%s] %d skipped, %d written\n", r.Region, len(r.Skipped), r.Written)
		for _, code := range r.Skipped {
			fmt.Fprintln(bw, code)
		}
		bw.WriteString("\n")
	}
	return eris.Wrap(bw.Flush(), "report: write skipped")
}

func writeFile(fs afero.Fs, path string, fn func(io.Writer) error) error {
	f, err := fs.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
