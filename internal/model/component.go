package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Component identifies one column of a merged dataset.
type Component string

const (
	ComponentDate Component = "date" // pseudo-component, only used for diff reporting
	ComponentTM   Component = "tm"   // mean temperature
	ComponentTX   Component = "tx"   // max temperature
	ComponentTN   Component = "tn"   // min temperature
	ComponentPR   Component = "pr"   // precipitation
	ComponentSR   Component = "sr"   // sunshine duration
	ComponentSD   Component = "sd"   // snow depth
)

// Columns is the persisted row layout: the date label followed by the six
// measured components.
var Columns = []Component{
	ComponentDate,
	ComponentTM,
	ComponentTX,
	ComponentTN,
	ComponentPR,
	ComponentSR,
	ComponentSD,
}

// Measured lists the six components that have archives, in row order.
var Measured = Columns[1:]

// SentinelValue marks an absent observation.
const SentinelValue = -1

// ErrUnknownComponent is returned for component tags outside the closed set.
var ErrUnknownComponent = eris.New("model: unknown component")

// ParseComponent returns the measured component for a (case-insensitive) tag.
func ParseComponent(s string) (Component, error) {
	c := Component(strings.ToLower(strings.TrimSpace(s)))
	if c.Column() < 1 {
		return "", eris.Wrapf(ErrUnknownComponent, "%q", s)
	}
	return c, nil
}

// Column returns the index of the component in a persisted row, or -1.
func (c Component) Column() int {
	for i, col := range Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Signed reports whether raw values carry the +1000 negative encoding.
func (c Component) Signed() bool {
	switch c {
	case ComponentTM, ComponentTX, ComponentTN:
		return true
	default:
		return false
	}
}

// Divisor is the fixed-point scale applied at merge time.
func (c Component) Divisor() int {
	if c == ComponentPR {
		return 1
	}
	return 10
}

func (c Component) String() string {
	return string(c)
}
