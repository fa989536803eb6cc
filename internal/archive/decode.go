package archive

import "github.com/sells-group/meshclimate/internal/model"

// signThreshold is the largest raw temperature that is stored as-is; larger
// values encode negatives as 1000 + |value|.
const signThreshold = 500

// Unpack reverses the negative-temperature encoding.
func Unpack(raw int) int {
	if raw > signThreshold {
		return raw - 1000
	}
	return raw
}

// Decode applies the component's raw-value decoding.
func Decode(c model.Component, raw int) int {
	if c.Signed() {
		return Unpack(raw)
	}
	return raw
}

// Scale converts a decoded reading into physical units.
func Scale(c model.Component, v int) float64 {
	return float64(v) / float64(c.Divisor())
}
