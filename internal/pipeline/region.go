package pipeline

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meshclimate/internal/model"
)

var (
	// ErrMissingComponent is returned for a region without one of the six archives.
	ErrMissingComponent = eris.New("pipeline: region is missing a component archive")
	// ErrDuplicateComponent is returned for a region with two archives of one component.
	ErrDuplicateComponent = eris.New("pipeline: region has more than one archive for a component")
	// ErrYearMismatch is returned when a region's archives cover different years.
	ErrYearMismatch = eris.New("pipeline: region archives disagree on year")
	// ErrUnknownRegion is returned when a requested region has no archives.
	ErrUnknownRegion = eris.New("pipeline: no archives for region")
)

// Region is one unit of transform work: every archive found for a region code.
type Region struct {
	Code  string
	Files []model.ArchiveName
}

// Archives checks that the region has exactly one archive per component and
// a single year, and returns them keyed by component.
func (r Region) Archives() (map[model.Component]model.ArchiveName, error) {
	out := make(map[model.Component]model.ArchiveName, len(model.Measured))
	for _, f := range r.Files {
		if prev, ok := out[f.Component]; ok {
			return nil, eris.Wrapf(ErrDuplicateComponent, "region %s: %s and %s", r.Code, prev.Path, f.Path)
		}
		out[f.Component] = f
	}

	year := -1
	for _, c := range model.Measured {
		f, ok := out[c]
		if !ok {
			return nil, eris.Wrapf(ErrMissingComponent, "region %s: %s", r.Code, c)
		}
		if year >= 0 && f.YearToken != year {
			return nil, eris.Wrapf(ErrYearMismatch, "region %s: %s is %02d, expected %02d", r.Code, f.Path, f.YearToken, year)
		}
		year = f.YearToken
	}
	return out, nil
}

// GroupRegions parses every archive path and groups the archives by region,
// sorted by region code. When only is non-empty, just those regions are
// kept, and each of them must have at least one archive.
func GroupRegions(paths []string, only []string) ([]Region, error) {
	keep := make(map[string]bool, len(only))
	for _, code := range only {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			keep[code] = true
		}
	}

	byCode := make(map[string]*Region)
	for _, p := range paths {
		name, err := model.ParseArchiveName(p)
		if err != nil {
			return nil, err
		}
		if len(keep) > 0 && !keep[name.Region] {
			continue
		}
		r, ok := byCode[name.Region]
		if !ok {
			r = &Region{Code: name.Region}
			byCode[name.Region] = r
		}
		r.Files = append(r.Files, name)
	}

	for code := range keep {
		if _, ok := byCode[code]; !ok {
			return nil, eris.Wrapf(ErrUnknownRegion, "%s", code)
		}
	}

	regions := make([]Region, 0, len(byCode))
	for _, r := range byCode {
		regions = append(regions, *r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions, nil
}
