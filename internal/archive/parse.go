// Package archive decodes the fixed-width daily mesh archives.
//
// An archive is a sequence of text-like lines. Lines that do not start with
// an ASCII digit are ignored. A 32-byte line is a location header:
//
//	mesh code (8) | elevation (4) | land (4) | paddy (4) | field (4) | orchard (4) | forest (4)
//
// Every other line is one month of readings for the current location:
//
//	year token (2) | month (2) | one 3-byte field per day of the month
//
// A blank field is an unreported day and decodes to model.SentinelValue.
package archive

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meshclimate/internal/model"
)

const (
	headerLen  = 32
	prefixLen  = 4
	fieldWidth = 3
)

var (
	// ErrMalformedField is returned for a 3-byte field that is neither blank nor numeric.
	ErrMalformedField = eris.New("archive: malformed field")
	// ErrMalformedRecord is returned for a data line whose prefix or width is invalid.
	ErrMalformedRecord = eris.New("archive: malformed record")
)

// Kind classifies a line.
type Kind int

const (
	KindIgnored Kind = iota
	KindHeader
	KindData
)

// Header is a decoded location header. Only Code is used by the transform;
// the land-use fields are informational.
type Header struct {
	Code        model.LocationCode `yaml:"code"`
	Elevation   int                `yaml:"elevation"`
	LandArea    int                `yaml:"land_area"`
	PaddyArea   int                `yaml:"paddy_area"`
	FieldArea   int                `yaml:"field_area"`
	OrchardArea int                `yaml:"orchard_area"`
	ForestArea  int                `yaml:"forest_area"`
}

// Record is one month of raw readings.
type Record struct {
	YearToken int
	Month     int
	Values    []int
}

// Line is a classified, decoded archive line.
type Line struct {
	Number int
	Kind   Kind
	Header Header
	Record Record
}

// ParseError identifies the offending raw line of a fatal decode failure.
type ParseError struct {
	Line int
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseLine classifies and decodes one raw line. Line terminators and
// trailing whitespace are stripped for classification; data fields are
// decoded from the line with only its terminator removed so that trailing
// blank fields survive.
func ParseLine(number int, raw []byte) (Line, error) {
	line := bytes.TrimRight(raw, "\r\n")
	trimmed := bytes.TrimRight(line, " \t\r\n\v\f")

	if len(trimmed) == 0 || !isDigit(trimmed[0]) {
		return Line{Number: number, Kind: KindIgnored}, nil
	}

	if len(trimmed) == headerLen {
		return Line{Number: number, Kind: KindHeader, Header: parseHeader(trimmed)}, nil
	}

	rec, err := parseRecord(line, trimmed)
	if err != nil {
		return Line{}, &ParseError{Line: number, Raw: string(line), Err: err}
	}
	return Line{Number: number, Kind: KindData, Record: rec}, nil
}

func parseHeader(line []byte) Header {
	s := string(line)
	return Header{
		Code:        model.LocationCode(strings.TrimSpace(s[:8])),
		Elevation:   parseIntOr(s[8:12], 0),
		LandArea:    parseIntOr(s[12:16], 0),
		PaddyArea:   parseIntOr(s[16:20], 0),
		FieldArea:   parseIntOr(s[20:24], 0),
		OrchardArea: parseIntOr(s[24:28], 0),
		ForestArea:  parseIntOr(s[28:32], 0),
	}
}

func parseRecord(line, trimmed []byte) (Record, error) {
	if len(trimmed) < prefixLen {
		return Record{}, eris.Wrap(ErrMalformedRecord, "short line")
	}

	year, err := strconv.Atoi(string(line[:2]))
	if err != nil {
		return Record{}, eris.Wrapf(ErrMalformedRecord, "year token %q", line[:2])
	}
	month, err := strconv.Atoi(string(line[2:4]))
	if err != nil || month < 1 || month > 12 {
		return Record{}, eris.Wrapf(ErrMalformedRecord, "month %q", line[2:4])
	}

	data := line[prefixLen:]
	if len(data)%fieldWidth != 0 {
		data = trimmed[prefixLen:]
	}
	if len(data)%fieldWidth != 0 {
		return Record{}, eris.Wrapf(ErrMalformedRecord, "data width %d is not a multiple of %d", len(data), fieldWidth)
	}

	values := make([]int, len(data)/fieldWidth)
	for i := range values {
		field := data[i*fieldWidth : (i+1)*fieldWidth]
		v, err := decodeField(field)
		if err != nil {
			return Record{}, eris.Wrapf(err, "day %d field %q", i+1, field)
		}
		values[i] = v
	}

	return Record{YearToken: year, Month: month, Values: values}, nil
}

// decodeField decodes one right-aligned 3-byte reading.
func decodeField(field []byte) (int, error) {
	s := strings.TrimSpace(string(field))
	if s == "" {
		return model.SentinelValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrMalformedField
	}
	return v, nil
}

// parseIntOr parses a string as an integer, returning def if parsing fails or the string is empty.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
