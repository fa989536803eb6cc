// Package calendar maps two-digit archive year tokens onto calendar years and
// produces the per-day label index that every day array is aligned to.
package calendar

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// pivot is the first token interpreted as 19xx. Tokens below it are 20xx, so
// this scheme stops working in 2078.
const pivot = 78

// ResolveYear turns a two-digit year token into a full year.
func ResolveYear(token int) (int, error) {
	if token < 0 || token > 99 {
		return 0, eris.Errorf("calendar: year token %d out of range", token)
	}
	if token >= pivot {
		return 1900 + token, nil
	}
	return 2000 + token, nil
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Index is the ordered list of MM-DD labels for one year.
type Index struct {
	Year   int
	labels []string
	pos    map[string]int
}

// ForToken resolves token and builds its index.
func ForToken(token int) (Index, error) {
	year, err := ResolveYear(token)
	if err != nil {
		return Index{}, err
	}
	return ForYear(year), nil
}

// ForYear builds the label index for January 1 through December 31 of year.
func ForYear(year int) Index {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	idx := Index{Year: year, pos: make(map[string]int, 366)}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		label := d.Format("01-02")
		idx.pos[label] = len(idx.labels)
		idx.labels = append(idx.labels, label)
	}
	return idx
}

// Len is the number of days in the year.
func (x Index) Len() int { return len(x.labels) }

// Label returns the MM-DD label of the i-th day (0-based).
func (x Index) Label(i int) string { return x.labels[i] }

// Labels returns a copy of all labels in calendar order.
func (x Index) Labels() []string {
	out := make([]string, len(x.labels))
	copy(out, x.labels)
	return out
}

// Offset returns the 0-based day-of-year of a MM-DD label.
func (x Index) Offset(label string) (int, bool) {
	i, ok := x.pos[label]
	return i, ok
}

// Label formats a month and day the way the index does.
func Label(month, day int) string {
	return fmt.Sprintf("%02d-%02d", month, day)
}
