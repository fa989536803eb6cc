package dataset

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meshclimate/internal/archive"
	"github.com/sells-group/meshclimate/internal/calendar"
	"github.com/sells-group/meshclimate/internal/model"
)

var (
	// ErrMissingComponent is returned when Sources lacks one of the six components.
	ErrMissingComponent = eris.New("dataset: missing component")
	// ErrLength is returned when a day array does not match the calendar length.
	ErrLength = eris.New("dataset: day array length does not match calendar")
)

// Sources holds one region's decoded day arrays, per component and location.
type Sources map[model.Component]map[model.LocationCode][]int

// FromArchives collects the day arrays of already loaded archives.
func FromArchives(archives ...*archive.Archive) Sources {
	src := make(Sources, len(archives))
	for _, a := range archives {
		src[a.Name.Component] = a.Days
	}
	return src
}

// Locations returns the authoritative location set of a region: every
// location reported by the mean temperature archive, sorted.
func (s Sources) Locations() []model.LocationCode {
	tm := s[model.ComponentTM]
	codes := make([]model.LocationCode, 0, len(tm))
	for code := range tm {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Merge builds the dataset for one location. Components that do not report
// the location contribute absent cells for the whole year.
func Merge(cal calendar.Index, code model.LocationCode, src Sources) (Dataset, error) {
	n := cal.Len()
	columns := make([][]int, len(model.Measured))

	for i, c := range model.Measured {
		byLoc, ok := src[c]
		if !ok {
			return Dataset{}, eris.Wrapf(ErrMissingComponent, "%s", c)
		}
		days, ok := byLoc[code]
		if !ok {
			continue
		}
		if len(days) != n {
			return Dataset{}, eris.Wrapf(ErrLength, "%s %s: %d days, expected %d", code, c, len(days), n)
		}
		columns[i] = days
	}

	rows := make([]Row, n)
	for d := 0; d < n; d++ {
		rows[d].Date = cal.Label(d)
		for i, c := range model.Measured {
			if columns[i] == nil {
				rows[d].Cells[i] = Cell{Value: model.SentinelValue, Absent: true}
				continue
			}
			v := archive.Scale(c, columns[i][d])
			if c == model.ComponentPR {
				v = math.Trunc(v)
			}
			rows[d].Cells[i] = Cell{Value: v}
		}
	}

	return Dataset{Location: code, Rows: rows}, nil
}
