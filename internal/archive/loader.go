package archive

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"

	"github.com/sells-group/meshclimate/internal/calendar"
	"github.com/sells-group/meshclimate/internal/model"
)

var (
	// ErrNoHeader is returned for a data line that precedes every header.
	ErrNoHeader = eris.New("archive: data record before any location header")
	// ErrDuplicateLocation is returned when a location header repeats within an archive.
	ErrDuplicateLocation = eris.New("archive: duplicate location")
	// ErrDuplicateMonth is returned when a location reports the same month twice.
	ErrDuplicateMonth = eris.New("archive: duplicate month")
	// ErrDayCount is returned when assembled readings do not cover the calendar exactly.
	ErrDayCount = eris.New("archive: day count does not match calendar")
	// ErrYearMismatch is returned when a data line's year differs from the archive's.
	ErrYearMismatch = eris.New("archive: year token does not match archive name")
)

// Archive is one fully decoded archive: a day array per location, in
// calendar order, with signed components already unpacked.
type Archive struct {
	Name      model.ArchiveName
	Calendar  calendar.Index
	Locations []model.LocationCode // header order
	Headers   map[model.LocationCode]Header
	Days      map[model.LocationCode][]int
}

// DayArray returns the readings for code.
func (a *Archive) DayArray(code model.LocationCode) ([]int, bool) {
	d, ok := a.Days[code]
	return d, ok
}

// LoadFile parses the archive name at path and loads it from fs.
func LoadFile(fs afero.Fs, path string) (*Archive, error) {
	name, err := model.ParseArchiveName(path)
	if err != nil {
		return nil, err
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	a, err := Load(f, name)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: load %s", path)
	}
	return a, nil
}

// Load consumes r and assembles every location's day array.
func Load(r io.Reader, name model.ArchiveName) (*Archive, error) {
	cal, err := calendar.ForToken(name.YearToken)
	if err != nil {
		return nil, err
	}

	out := &Archive{
		Name:     name,
		Calendar: cal,
		Headers:  make(map[model.LocationCode]Header),
		Days:     make(map[model.LocationCode][]int),
	}
	asm := &assembler{out: out}

	sc := NewScanner(r)
	for sc.Scan() {
		l := sc.Line()
		switch l.Kind {
		case KindHeader:
			err = asm.onHeader(l)
		case KindData:
			err = asm.onData(l)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := asm.onEnd(); err != nil {
		return nil, err
	}

	if name.Component.Signed() {
		for _, days := range out.Days {
			for i, v := range days {
				days[i] = Unpack(v)
			}
		}
	}
	return out, nil
}

type assemblerState int

const (
	stateNoLocation assemblerState = iota
	stateAccumulating
)

// assembler groups monthly records under the most recent header. It is
// either waiting for the first header or accumulating months for one
// location; a new header or the end of input flushes the accumulated months.
type assembler struct {
	out    *Archive
	state  assemblerState
	header Header
	months map[int][]int
}

func (a *assembler) onHeader(l Line) error {
	if a.state == stateAccumulating {
		if err := a.flush(); err != nil {
			return err
		}
	}
	if _, seen := a.out.Headers[l.Header.Code]; seen {
		return eris.Wrapf(ErrDuplicateLocation, "line %d: %s", l.Number, l.Header.Code)
	}
	a.state = stateAccumulating
	a.header = l.Header
	a.months = make(map[int][]int, 12)
	return nil
}

func (a *assembler) onData(l Line) error {
	if a.state == stateNoLocation {
		return eris.Wrapf(ErrNoHeader, "line %d", l.Number)
	}
	rec := l.Record
	if rec.YearToken != a.out.Name.YearToken {
		return eris.Wrapf(ErrYearMismatch, "line %d: %02d, expected %02d", l.Number, rec.YearToken, a.out.Name.YearToken)
	}
	if _, dup := a.months[rec.Month]; dup {
		return eris.Wrapf(ErrDuplicateMonth, "line %d: %s month %02d", l.Number, a.header.Code, rec.Month)
	}
	if want := calendar.DaysInMonth(a.out.Calendar.Year, rec.Month); len(rec.Values) != want {
		return eris.Wrapf(ErrDayCount, "line %d: %s month %02d has %d days, expected %d",
			l.Number, a.header.Code, rec.Month, len(rec.Values), want)
	}
	a.months[rec.Month] = rec.Values
	return nil
}

func (a *assembler) onEnd() error {
	if a.state == stateAccumulating {
		return a.flush()
	}
	return nil
}

// flush concatenates the buffered months in calendar order and finalizes
// the current location.
func (a *assembler) flush() error {
	order := make([]int, 0, len(a.months))
	for m := range a.months {
		order = append(order, m)
	}
	sort.Ints(order)

	days := make([]int, 0, a.out.Calendar.Len())
	for _, m := range order {
		days = append(days, a.months[m]...)
	}
	if len(days) != a.out.Calendar.Len() {
		return eris.Wrapf(ErrDayCount, "%s: %d days, expected %d", a.header.Code, len(days), a.out.Calendar.Len())
	}

	code := a.header.Code
	a.out.Locations = append(a.out.Locations, code)
	a.out.Headers[code] = a.header
	a.out.Days[code] = days

	a.state = stateNoLocation
	a.months = nil
	return nil
}
