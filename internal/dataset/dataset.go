// Package dataset merges the six component day arrays of a location into the
// per-day rows that are persisted, and encodes/decodes the persisted form.
package dataset

import (
	"github.com/sells-group/meshclimate/internal/model"
)

// Cell is one component's physical value for one day.
type Cell struct {
	Value float64
	// Absent marks a location that the component's archive does not report
	// at all, as opposed to a blank (unreported) day.
	Absent bool
}

// Row is one calendar day: its MM-DD label and the six measured components
// in model.Measured order.
type Row struct {
	Date  string
	Cells [6]Cell
}

// Value returns the row's value for a measured component.
func (r Row) Value(c model.Component) (float64, bool) {
	col := c.Column()
	if col < 1 {
		return 0, false
	}
	return r.Cells[col-1].Value, true
}

// Dataset is the merged, persisted unit for one location and year.
type Dataset struct {
	Location model.LocationCode
	Rows     []Row
}

// RowIndex maps each date label to its row position.
func (d Dataset) RowIndex() map[string]int {
	idx := make(map[string]int, len(d.Rows))
	for i, r := range d.Rows {
		idx[r.Date] = i
	}
	return idx
}
