// Package archivetest renders raw archives for tests.
package archivetest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sells-group/meshclimate/internal/calendar"
	"github.com/sells-group/meshclimate/internal/model"
)

// Blank renders as an empty 3-byte field.
const Blank = -9999

// HeaderLine renders a 32-byte location header with fixed land-use figures.
func HeaderLine(code string) string {
	return fmt.Sprintf("%-8s%4d%4d%4d%4d%4d%4d", code, 123, 100, 20, 15, 5, 60)
}

// MonthLine renders one month of raw readings.
func MonthLine(yy, month int, vals []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d%02d", yy, month)
	for _, v := range vals {
		if v == Blank {
			b.WriteString("   ")
			continue
		}
		fmt.Fprintf(&b, "%3d", v)
	}
	return b.String()
}

// LocationBlock renders a header plus twelve month lines whose readings
// come from value.
func LocationBlock(code string, yy int, value func(month, day int) int) []string {
	year, _ := calendar.ResolveYear(yy)
	lines := []string{HeaderLine(code)}
	for m := 1; m <= 12; m++ {
		n := calendar.DaysInMonth(year, m)
		vals := make([]int, n)
		for d := 1; d <= n; d++ {
			vals[d-1] = value(m, d)
		}
		lines = append(lines, MonthLine(yy, m, vals))
	}
	return lines
}

// Constant returns a reading function with a single value.
func Constant(v int) func(int, int) int {
	return func(int, int) int { return v }
}

// FileName returns the archive file name for a component, region and year.
func FileName(c model.Component, region string, yy int) string {
	return fmt.Sprintf("ms%s%s%02d.dat", c, strings.ToLower(region), yy)
}

// Join renders lines with CRLF terminators.
func Join(blocks ...[]string) string {
	var all []string
	for _, l := range blocks {
		all = append(all, l...)
	}
	return strings.Join(all, "\r\n") + "\r\n"
}

// Write stores an archive under dir and returns its path.
func Write(fs afero.Fs, dir string, c model.Component, region string, yy int, blocks ...[]string) (string, error) {
	path := filepath.Join(dir, FileName(c, region, yy))
	return path, afero.WriteFile(fs, path, []byte(Join(blocks...)), 0o644)
}
