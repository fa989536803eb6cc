// Package mesh maps third-order standard grid codes to their geographic
// extent.
package mesh

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/meshclimate/internal/model"
)

// Cell sizes in degrees.
const (
	CellHeight = 30.0 / 3600 // 30"
	CellWidth  = 45.0 / 3600 // 45"
)

// ErrInvalidCode is returned for codes that are not a valid third-order mesh.
var ErrInvalidCode = eris.New("mesh: invalid third-order code")

// Bounds returns the cell's extent with X as longitude and Y as latitude.
func Bounds(code model.LocationCode) (*geom.Bounds, error) {
	s := string(code)
	if len(s) != 8 {
		return nil, eris.Wrapf(ErrInvalidCode, "%q: want 8 digits", s)
	}
	d := make([]int, 8)
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, eris.Wrapf(ErrInvalidCode, "%q: non-digit", s)
		}
		d[i] = int(s[i] - '0')
	}
	if d[4] > 7 || d[5] > 7 {
		return nil, eris.Wrapf(ErrInvalidCode, "%q: second-order digits must be 0-7", s)
	}

	lat := float64(d[0]*10+d[1])/1.5 + float64(d[4])*5/60 + float64(d[6])*CellHeight
	lon := 100 + float64(d[2]*10+d[3]) + float64(d[5])*7.5/60 + float64(d[7])*CellWidth

	return geom.NewBounds(geom.XY).Set(lon, lat, lon+CellWidth, lat+CellHeight), nil
}

// Polygon returns the cell outline.
func Polygon(code model.LocationCode) (*geom.Polygon, error) {
	b, err := Bounds(code)
	if err != nil {
		return nil, err
	}
	return b.Polygon(), nil
}

// Center returns the latitude and longitude of the cell centre.
func Center(code model.LocationCode) (lat, lon float64, err error) {
	b, err := Bounds(code)
	if err != nil {
		return 0, 0, err
	}
	return (b.Min(1) + b.Max(1)) / 2, (b.Min(0) + b.Max(0)) / 2, nil
}

// WKT renders the cell outline as well-known text.
func WKT(code model.LocationCode) (string, error) {
	p, err := Polygon(code)
	if err != nil {
		return "", err
	}
	s, err := wkt.Marshal(p, wkt.EncodeOptionWithMaxDecimalDigits(6))
	return s, eris.Wrapf(err, "mesh: marshal %s", code)
}
