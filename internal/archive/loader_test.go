package archive

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meshclimate/internal/model"
)

func TestLoad_TwoLocations(t *testing.T) {
	src := join(
		[]string{"MESH CLIMATE DATA", "tm 2020"},
		locationBlock("53394611", 20, func(m, d int) int { return m*10 + d }),
		locationBlock("53394612", 20, constant(612)),
	)

	a, err := Load(strings.NewReader(src), archiveName(model.ComponentTM, 20))
	require.NoError(t, err)

	assert.Equal(t, 2020, a.Calendar.Year)
	assert.Equal(t, []model.LocationCode{"53394611", "53394612"}, a.Locations)
	require.Len(t, a.Days, 2)

	for code, days := range a.Days {
		assert.Len(t, days, a.Calendar.Len(), "location %s", code)
	}

	first, ok := a.DayArray("53394611")
	require.True(t, ok)
	assert.Equal(t, 11, first[0])
	assert.Equal(t, 49, first[59]) // 02-29
	assert.Equal(t, 151, first[365])

	second, _ := a.DayArray("53394612")
	for _, v := range second {
		assert.Equal(t, -388, v)
	}

	assert.Equal(t, 123, a.Headers["53394611"].Elevation)
}

func TestLoad_NonLeapYear(t *testing.T) {
	src := join(locationBlock("53394611", 21, constant(5)))
	a, err := Load(strings.NewReader(src), archiveName(model.ComponentPR, 21))
	require.NoError(t, err)
	days, _ := a.DayArray("53394611")
	assert.Len(t, days, 365)
}

func TestLoad_UnsignedComponentNotUnpacked(t *testing.T) {
	src := join(locationBlock("53394611", 20, constant(612)))
	a, err := Load(strings.NewReader(src), archiveName(model.ComponentSR, 20))
	require.NoError(t, err)
	days, _ := a.DayArray("53394611")
	assert.Equal(t, 612, days[0])
}

func TestLoad_BlankFieldsAreSentinel(t *testing.T) {
	src := join(locationBlock("53394611", 20, func(m, d int) int {
		if m == 3 && d == 1 {
			return blank
		}
		return 7
	}))
	a, err := Load(strings.NewReader(src), archiveName(model.ComponentTM, 20))
	require.NoError(t, err)
	days, _ := a.DayArray("53394611")
	assert.Equal(t, model.SentinelValue, days[60])
	assert.Equal(t, 7, days[61])
}

func TestLoad_MonthsOutOfOrder(t *testing.T) {
	block := locationBlock("53394611", 20, func(m, d int) int { return m })
	// Swap January and December.
	block[1], block[12] = block[12], block[1]

	a, err := Load(strings.NewReader(join(block)), archiveName(model.ComponentPR, 20))
	require.NoError(t, err)
	days, _ := a.DayArray("53394611")
	assert.Equal(t, 1, days[0])
	assert.Equal(t, 12, days[365])
}

func TestLoad_Errors(t *testing.T) {
	full := locationBlock("53394611", 20, constant(1))

	tests := []struct {
		name   string
		src    string
		target error
	}{
		{
			name:   "data before header",
			src:    join(full[1:2], full),
			target: ErrNoHeader,
		},
		{
			name:   "duplicate location",
			src:    join(full, full),
			target: ErrDuplicateLocation,
		},
		{
			name:   "duplicate month",
			src:    join(full, full[1:2]),
			target: ErrDuplicateMonth,
		},
		{
			name:   "missing month",
			src:    join(full[:12]),
			target: ErrDayCount,
		},
		{
			name:   "short month",
			src:    join(full[:1], []string{full[1][:len(full[1])-3]}, full[2:]),
			target: ErrDayCount,
		},
		{
			name:   "year mismatch",
			src:    join(locationBlock("53394611", 21, constant(1))),
			target: ErrYearMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src), archiveName(model.ComponentPR, 20))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestLoad_MalformedFieldSurfacesLine(t *testing.T) {
	block := locationBlock("53394611", 20, constant(1))
	bad := block[3][:4] + "abc" + block[3][7:]
	block[3] = bad

	_, err := Load(strings.NewReader(join(block)), archiveName(model.ComponentPR, 20))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedField))
	assert.Contains(t, err.Error(), bad)
	assert.Contains(t, err.Error(), "line 4")
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/src/2020/MSTM1320.DAT"
	require.NoError(t, afero.WriteFile(fs, path, []byte(join(locationBlock("53394611", 20, constant(612)))), 0o644))

	a, err := LoadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, model.ComponentTM, a.Name.Component)
	assert.Equal(t, "13", a.Name.Region)
	days, _ := a.DayArray("53394611")
	assert.Equal(t, -388, days[0])
}

func TestLoadFile_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFile(fs, "/src/readme.dat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrArchiveName))

	_, err = LoadFile(fs, "/src/mstm1320.dat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mstm1320.dat")
}
