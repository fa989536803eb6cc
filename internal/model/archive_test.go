package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchiveName(t *testing.T) {
	tests := []struct {
		path   string
		comp   Component
		region string
		year   int
	}{
		{"src/mstm1320.dat", ComponentTM, "13", 20},
		{"/data/MSPR0109.DAT", ComponentPR, "01", 9},
		{"mssdab00.dat", ComponentSD, "AB", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			n, err := ParseArchiveName(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.path, n.Path)
			assert.Equal(t, tt.comp, n.Component)
			assert.Equal(t, tt.region, n.Region)
			assert.Equal(t, tt.year, n.YearToken)
		})
	}
}

func TestParseArchiveName_Invalid(t *testing.T) {
	for _, path := range []string{"mstm1320.txt", "tm1320.dat", "mstm13201.dat", "readme"} {
		_, err := ParseArchiveName(path)
		assert.True(t, errors.Is(err, ErrArchiveName), path)
	}

	_, err := ParseArchiveName("msxx1320.dat")
	assert.True(t, errors.Is(err, ErrUnknownComponent))
}

func TestLocationCode_Partitions(t *testing.T) {
	p4, p6 := LocationCode("53394611").Partitions()
	assert.Equal(t, "5339", p4)
	assert.Equal(t, "533946", p6)

	p4, p6 = LocationCode("533").Partitions()
	assert.Equal(t, "533", p4)
	assert.Equal(t, "533", p6)
}

func TestParseComponent(t *testing.T) {
	c, err := ParseComponent(" TX ")
	require.NoError(t, err)
	assert.Equal(t, ComponentTX, c)

	_, err = ParseComponent("date")
	assert.True(t, errors.Is(err, ErrUnknownComponent))
	assert.Equal(t, -1, Component("zz").Column())
	assert.Equal(t, 4, ComponentPR.Column())
}
