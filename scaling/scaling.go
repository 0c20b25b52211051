// Package scaling converts physical measurements to the engine's signed
// 8-bit input domain and crisp outputs back to actuation units.
package scaling

import "math"

// Input maps a physical value to an engine input: trunc(v) * Num / Den,
// saturated to [-127, 127].
type Input struct {
	Num int `toml:"num"`
	Den int `toml:"den"`
}

// Output maps a crisp value to actuation units: crisp * Num / Den.
type Output struct {
	Num int `toml:"num"`
	Den int `toml:"den"`
}

var (
	// DistanceCM takes a lateral distance in cm at 2 cm per LSB (+-254 cm).
	DistanceCM = Input{Num: 1, Den: 2}
	// AngleDeg takes a course angle in degrees at 1 degree per LSB.
	AngleDeg = Input{Num: 1, Den: 1}
	// SteerDeg yields a wheel angle in degrees, one degree per crisp unit.
	SteerDeg = Output{Num: 1, Den: 1}
	// Unit passes values through unchanged.
	Unit = Input{Num: 1, Den: 1}
)

func ratio(num, den int) (int, int) {
	if num == 0 && den == 0 {
		return 1, 1
	}
	if den == 0 {
		den = 1
	}
	return num, den
}

// Scale converts v. NaN maps to 0 and infinities saturate.
func (s Input) Scale(v float64) int8 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		v = math.MaxInt32
	case v < math.MinInt32:
		v = math.MinInt32
	}
	return s.ScaleInt(int64(v))
}

// ScaleInt converts an integer measurement.
func (s Input) ScaleInt(v int64) int8 {
	num, den := ratio(s.Num, s.Den)
	return ClampS8(v * int64(num) / int64(den))
}

// Scale converts a crisp engine output.
func (s Output) Scale(crisp int8) int16 {
	num, den := ratio(s.Num, s.Den)
	v := int64(crisp) * int64(num) / int64(den)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// ClampS8 saturates v to [-127, 127].
func ClampS8(v int64) int8 {
	if v < -127 {
		return -127
	}
	if v > 127 {
		return 127
	}
	return int8(v)
}
