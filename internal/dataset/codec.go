package dataset

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meshclimate/internal/model"
)

// MarshalJSON encodes the rows as a compact array of
// ["MM-DD", tm, tx, tn, pr, sr, sd] arrays.
func (d Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(d.Rows) * 48)
	buf.WriteByte('[')
	for i, r := range d.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`["`)
		buf.WriteString(r.Date)
		buf.WriteByte('"')
		for j, c := range model.Measured {
			buf.WriteByte(',')
			buf.WriteString(FormatCell(c, r.Cells[j]))
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the persisted row arrays. Absence is not
// recoverable from the persisted form.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "dataset: decode rows")
	}

	rows := make([]Row, len(raw))
	for i, fields := range raw {
		if len(fields) != len(model.Columns) {
			return eris.Errorf("dataset: row %d has %d columns, expected %d", i, len(fields), len(model.Columns))
		}
		if err := json.Unmarshal(fields[0], &rows[i].Date); err != nil {
			return eris.Wrapf(err, "dataset: row %d date", i)
		}
		for j := range model.Measured {
			if err := json.Unmarshal(fields[j+1], &rows[i].Cells[j].Value); err != nil {
				return eris.Wrapf(err, "dataset: row %d column %s", i, model.Measured[j])
			}
		}
	}
	d.Rows = rows
	return nil
}

// Encode writes the persisted form of d to w.
func Encode(w io.Writer, d Dataset) error {
	b, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return eris.Wrap(err, "dataset: write")
}

// Decode reads a persisted dataset for code from r.
func Decode(r io.Reader, code model.LocationCode) (Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, eris.Wrap(err, "dataset: read")
	}
	d := Dataset{Location: code}
	if err := d.UnmarshalJSON(b); err != nil {
		return Dataset{}, eris.Wrapf(err, "dataset: %s", code)
	}
	return d, nil
}

// FormatCell renders a cell the way it is persisted. Absent cells are
// always the bare sentinel.
func FormatCell(c model.Component, cell Cell) string {
	if cell.Absent {
		return strconv.Itoa(model.SentinelValue)
	}
	return FormatValue(c, cell.Value)
}

// FormatValue renders a physical value: precipitation as an integer, every
// other component as a shortest round-trip decimal that always carries a
// fractional part (12 -> "12.0").
func FormatValue(c model.Component, v float64) string {
	if c == model.ComponentPR {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
