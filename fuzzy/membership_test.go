package fuzzy_test

import (
	"math"
	"testing"

	"fuzzy-steer-core/fuzzy"
)

func allInputs(f func(x int8)) {
	for x := math.MinInt8; x <= math.MaxInt8; x++ {
		f(int8(x))
	}
}

func TestMembershipPoints(t *testing.T) {
	tests := []struct {
		name string
		m    fuzzy.Membership
		x    int8
		want uint8
	}{
		{"cubic median", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 0, P2: 10}, 0, 255},
		{"cubic half width", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 0, P2: 10}, 10, 127},
		{"cubic negative width", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 0, P2: -10}, -10, 127},
		{"cubic zero width at median", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 5, P2: 0}, 5, 255},
		{"cubic zero width off median", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 5, P2: 0}, 6, 0},
		{"cubic full range", fuzzy.Membership{Shape: fuzzy.Cubic, P1: 127, P2: 1}, -128, 0},
		{"triangle center", fuzzy.Membership{Shape: fuzzy.Triangle, P1: 0, P2: 100}, 0, 255},
		{"triangle halfway", fuzzy.Membership{Shape: fuzzy.Triangle, P1: 0, P2: 100}, 50, 127},
		{"triangle left edge", fuzzy.Membership{Shape: fuzzy.Triangle, P1: 0, P2: 100}, -100, 0},
		{"triangle outside", fuzzy.Membership{Shape: fuzzy.Triangle, P1: 0, P2: 100}, 101, 0},
		{"asym left slope", fuzzy.Membership{Shape: fuzzy.AsymTriangle, P1: 20, P2: 100, P3: 50}, -30, 127},
		{"asym right slope", fuzzy.Membership{Shape: fuzzy.AsymTriangle, P1: 20, P2: 100, P3: 50}, 45, 127},
		{"asym right edge", fuzzy.Membership{Shape: fuzzy.AsymTriangle, P1: 20, P2: 100, P3: 50}, 70, 0},
		{"asym zero right", fuzzy.Membership{Shape: fuzzy.AsymTriangle, P1: 20, P2: 100, P3: 0}, 20, 0},
		{"boxcar inside", fuzzy.Membership{Shape: fuzzy.Boxcar, P1: -10, P2: 50}, 40, 255},
		{"boxcar outside", fuzzy.Membership{Shape: fuzzy.Boxcar, P1: -10, P2: 50}, 41, 0},
		{"trapezoid plateau", fuzzy.Membership{Shape: fuzzy.Trapezoid, P1: -15, P2: 10, P3: 40}, -25, 255},
		{"trapezoid shoulder", fuzzy.Membership{Shape: fuzzy.Trapezoid, P1: -15, P2: 10, P3: 40}, -30, 212},
		{"trapezoid base", fuzzy.Membership{Shape: fuzzy.Trapezoid, P1: -15, P2: 10, P3: 40}, 25, 0},
		{"trapezoid beyond base", fuzzy.Membership{Shape: fuzzy.Trapezoid, P1: -15, P2: 10, P3: 40}, 26, 0},
		{"low below", fuzzy.Membership{Shape: fuzzy.Low, P1: -25, P2: 25}, -26, 255},
		{"low ramp", fuzzy.Membership{Shape: fuzzy.Low, P1: -25, P2: 25}, 0, 127},
		{"low above", fuzzy.Membership{Shape: fuzzy.Low, P1: -25, P2: 25}, 26, 0},
		{"low degenerate", fuzzy.Membership{Shape: fuzzy.Low, P1: 3, P2: 3}, 3, 255},
		{"high ramp", fuzzy.Membership{Shape: fuzzy.High, P1: -5, P2: 55}, 15, 85},
		{"high above", fuzzy.Membership{Shape: fuzzy.High, P1: -5, P2: 55}, 56, 255},
		{"high degenerate", fuzzy.Membership{Shape: fuzzy.High, P1: 3, P2: 3}, 3, 255},
		{"unknown shape", fuzzy.Membership{Shape: fuzzy.Shape(42)}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Degree(tt.x); got != tt.want {
				t.Errorf("%v%v.Degree(%d) = %d, want %d", tt.m.Shape, []int8{tt.m.P1, tt.m.P2, tt.m.P3}, tt.x, got, tt.want)
			}
		})
	}
}

func TestCubicPeakAtMedian(t *testing.T) {
	for _, median := range []int8{-128, -50, 0, 77, 127} {
		for _, w := range []int8{-128, -1, 1, 10, 127} {
			if got := fuzzy.CubicPeak(median, median, w); got != fuzzy.Full {
				t.Errorf("CubicPeak(%d, %d, %d) = %d, want 255", median, median, w, got)
			}
		}
	}
}

func TestCubicPeakMonotonicAwayFromMedian(t *testing.T) {
	prev := fuzzy.Full
	for x := 0; x <= 127; x++ {
		got := fuzzy.CubicPeak(int8(x), 0, 20)
		if got > prev {
			t.Fatalf("CubicPeak(%d, 0, 20) = %d, rises above %d", x, got, prev)
		}
		prev = got
	}
}

func TestSymTriangleSymmetry(t *testing.T) {
	const center, w = int8(10), int8(40)
	for k := 0; k <= 117; k++ {
		left := fuzzy.SymTriangle(int8(int(center)-k), center, w)
		right := fuzzy.SymTriangle(int8(int(center)+k), center, w)
		if left != right {
			t.Errorf("offset %d: left %d != right %d", k, left, right)
		}
		if k > int(w) && (left != 0 || right != 0) {
			t.Errorf("offset %d outside support: got %d/%d, want 0", k, left, right)
		}
	}
}

func TestSymTriangleZeroWidth(t *testing.T) {
	allInputs(func(x int8) {
		if got := fuzzy.SymTriangle(x, x, 0); got != 0 {
			t.Fatalf("SymTriangle(%d, %d, 0) = %d, want 0", x, x, got)
		}
	})
}

func TestTrapezoidEqualWidthsIsBoxcar(t *testing.T) {
	for _, c := range []int8{-100, -15, 0, 50} {
		for _, w := range []int8{0, 1, 10, 40} {
			allInputs(func(x int8) {
				trap := fuzzy.Trapeze(x, c, w, w)
				box := fuzzy.Box(x, c, w)
				if trap != box {
					t.Fatalf("center %d width %d x %d: trapezoid %d, boxcar %d", c, w, x, trap, box)
				}
			})
		}
	}
}

func TestTrapezoidOneSidedStep(t *testing.T) {
	// base narrower than plateau on both sides: a plain box of base width
	if got := fuzzy.Trapeze(5, 0, 10, 5); got != fuzzy.Full {
		t.Errorf("Trapeze(5, 0, 10, 5) = %d, want 255", got)
	}
	if got := fuzzy.Trapeze(6, 0, 10, 5); got != 0 {
		t.Errorf("Trapeze(6, 0, 10, 5) = %d, want 0", got)
	}
}

func TestRampsOrderIndependent(t *testing.T) {
	pairs := [][2]int8{{-25, 25}, {-100, -75}, {75, 100}, {0, 0}, {-128, 127}, {10, 11}}
	for _, p := range pairs {
		allInputs(func(x int8) {
			if a, b := fuzzy.RampLow(x, p[0], p[1]), fuzzy.RampLow(x, p[1], p[0]); a != b {
				t.Fatalf("RampLow x=%d %v: %d vs swapped %d", x, p, a, b)
			}
			if a, b := fuzzy.RampHigh(x, p[0], p[1]), fuzzy.RampHigh(x, p[1], p[0]); a != b {
				t.Fatalf("RampHigh x=%d %v: %d vs swapped %d", x, p, a, b)
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	for s := fuzzy.Cubic; s <= fuzzy.High; s++ {
		got, err := fuzzy.ParseShape(s.String())
		if err != nil {
			t.Fatalf("ParseShape(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseShape(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if _, err := fuzzy.ParseShape("gauss"); err == nil {
		t.Error("ParseShape(\"gauss\"): expected error")
	}
}
