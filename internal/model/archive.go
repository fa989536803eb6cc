package model

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// LocationCode is the 8-character third-order mesh code of a grid cell.
type LocationCode string

// Partitions returns the two directory levels a dataset is stored under.
func (c LocationCode) Partitions() (string, string) {
	s := string(c)
	return prefix(s, 4), prefix(s, 6)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// ErrArchiveName is returned for file names that do not follow the
// ms<component><region><year>.dat convention.
var ErrArchiveName = eris.New("model: unrecognized archive name")

var archiveNameRe = regexp.MustCompile(`(?i)^ms([a-z]{2})([0-9a-z]{2})([0-9]{2})\.dat$`)

// ArchiveName is the identity encoded in an archive's file name.
type ArchiveName struct {
	Path      string
	Component Component
	Region    string // upper-cased
	YearToken int    // two-digit year token, 0..99
}

// ParseArchiveName extracts component, region and year token from path's base name.
func ParseArchiveName(path string) (ArchiveName, error) {
	base := filepath.Base(path)
	m := archiveNameRe.FindStringSubmatch(base)
	if m == nil {
		return ArchiveName{}, eris.Wrapf(ErrArchiveName, "%s", base)
	}

	comp, err := ParseComponent(m[1])
	if err != nil {
		return ArchiveName{}, eris.Wrapf(err, "archive %s", base)
	}

	year, _ := strconv.Atoi(m[3])

	return ArchiveName{
		Path:      path,
		Component: comp,
		Region:    strings.ToUpper(m[2]),
		YearToken: year,
	}, nil
}
