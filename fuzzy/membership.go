// Package fuzzy is a fixed-point fuzzy inference engine: membership
// functions over signed 8-bit inputs, rule composition over degrees in
// [0,255] and centroid defuzzification to a signed 8-bit crisp value.
package fuzzy

import "fmt"

// Full and None are the saturated membership degrees.
const (
	Full uint8 = 255
	None uint8 = 0
)

// Shape selects a membership function.
type Shape uint8

const (
	// Cubic is a cubic approximation of a Gaussian: P1=median, P2=half-width at 0.5.
	Cubic Shape = iota
	// Triangle is a symmetric triangle _/\_: P1=center, P2=half-width.
	Triangle
	// AsymTriangle is a triangle with independent slopes: P1=center, P2=left, P3=right.
	AsymTriangle
	// Boxcar is a rectangle _|~|_: P1=center, P2=half-width.
	Boxcar
	// Trapezoid is _/~\_: P1=center, P2=plateau half-width, P3=base half-width.
	Trapezoid
	// Low is a falling ramp ~\_ between P1 and P2 (either order).
	Low
	// High is a rising ramp _/~ between P1 and P2 (either order).
	High

	numShapes
)

var shapeNames = [numShapes]string{
	Cubic:        "cubic",
	Triangle:     "triangle",
	AsymTriangle: "asym_triangle",
	Boxcar:       "boxcar",
	Trapezoid:    "trapezoid",
	Low:          "low",
	High:         "high",
}

func (s Shape) String() string {
	if s < numShapes {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// Valid reports whether s names one of the seven shapes.
func (s Shape) Valid() bool { return s < numShapes }

// ParseShape maps a shape name as printed by String back to a Shape.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// Membership is a shape together with its parameters. Parameters a shape
// does not use are ignored.
type Membership struct {
	Shape      Shape
	P1, P2, P3 int8
}

// Degree evaluates m at x. Unknown shapes yield None; tables reject them
// before they can be evaluated.
func (m Membership) Degree(x int8) uint8 {
	switch m.Shape {
	case Cubic:
		return CubicPeak(x, m.P1, m.P2)
	case Triangle:
		return SymTriangle(x, m.P1, m.P2)
	case AsymTriangle:
		return AsymmetricTriangle(x, m.P1, m.P2, m.P3)
	case Boxcar:
		return Box(x, m.P1, m.P2)
	case Trapezoid:
		return Trapeze(x, m.P1, m.P2, m.P3)
	case Low:
		return RampLow(x, m.P1, m.P2)
	case High:
		return RampHigh(x, m.P1, m.P2)
	default:
		return None
	}
}

// CubicPeak returns 255*d^3 / (d^3 + |x-median|^3) with d = |halfWidth|.
// The cube of a full-range delta needs more than 16 bits, so everything is
// computed in int.
func CubicPeak(x, median, halfWidth int8) uint8 {
	d := abs(int(halfWidth))
	d3 := d * d * d
	dx := abs(int(x) - int(median))
	den := d3 + dx*dx*dx
	if den == 0 {
		return Full
	}
	return clampDegree(d3 * 255 / den)
}

// SymTriangle rises linearly from center-halfWidth to center and falls to
// center+halfWidth. A zero half-width yields None everywhere.
func SymTriangle(x, center, halfWidth int8) uint8 {
	return AsymmetricTriangle(x, center, halfWidth, halfWidth)
}

// AsymmetricTriangle is SymTriangle with separate left and right half-widths.
func AsymmetricTriangle(x, center, left, right int8) uint8 {
	if left == 0 || right == 0 {
		return None
	}
	xi, c := int(x), int(center)
	lo, hi := c-int(left), c+int(right)
	switch {
	case xi < lo || xi > hi:
		return None
	case xi < c:
		return clampDegree((xi - lo) * 255 / int(left))
	default:
		return clampDegree((hi - xi) * 255 / int(right))
	}
}

// Box is Full inside [center-halfWidth, center+halfWidth] and None outside.
func Box(x, center, halfWidth int8) uint8 {
	xi, c := int(x), int(center)
	if xi >= c-int(halfWidth) && xi <= c+int(halfWidth) {
		return Full
	}
	return None
}

// Trapeze is Full on the plateau, falls linearly to the base edges and is
// None beyond them. A shoulder of zero width is a step.
func Trapeze(x, center, plateau, base int8) uint8 {
	xi, c := int(x), int(center)
	topLo, topHi := c-int(plateau), c+int(plateau)
	baseLo, baseHi := c-int(base), c+int(base)

	switch {
	case xi < baseLo || xi > baseHi:
		return None
	case xi >= topLo && xi <= topHi:
		return Full
	case xi < topLo:
		if topLo > baseLo {
			return clampDegree((xi - baseLo) * 255 / (topLo - baseLo))
		}
		return Full
	default:
		if baseHi > topHi {
			return clampDegree((baseHi - xi) * 255 / (baseHi - topHi))
		}
		return Full
	}
}

// RampLow is Full below min(p1,p2), None above max(p1,p2) and linear between.
func RampLow(x, p1, p2 int8) uint8 {
	lo, hi := sorted(p1, p2)
	xi := int(x)
	switch {
	case xi < lo:
		return Full
	case xi > hi:
		return None
	case hi == lo:
		return Full
	default:
		return clampDegree((hi - xi) * 255 / (hi - lo))
	}
}

// RampHigh is None below min(p1,p2), Full above max(p1,p2) and linear between.
func RampHigh(x, p1, p2 int8) uint8 {
	lo, hi := sorted(p1, p2)
	xi := int(x)
	switch {
	case xi < lo:
		return None
	case xi > hi:
		return Full
	case hi == lo:
		return Full
	default:
		return clampDegree((xi - lo) * 255 / (hi - lo))
	}
}

func sorted(p1, p2 int8) (int, int) {
	if p1 > p2 {
		return int(p2), int(p1)
	}
	return int(p1), int(p2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampDegree(v int) uint8 {
	if v < 0 {
		return None
	}
	if v > 255 {
		return Full
	}
	return uint8(v)
}
