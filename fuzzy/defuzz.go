package fuzzy

// Crisp output limits.
const (
	CrispMin int8 = -127
	CrispMax int8 = 127
)

// Defuzzify reduces the centroid sums to a crisp value using truncating
// division. A zero weight sum means no terminal rule fired and yields 0.
// The result saturates to [CrispMin, CrispMax].
func Defuzzify(weighted, weights int64) int8 {
	if weights == 0 {
		return 0
	}
	return clampCrisp(weighted / weights)
}

func clampCrisp(v int64) int8 {
	if v < int64(CrispMin) {
		return CrispMin
	}
	if v > int64(CrispMax) {
		return CrispMax
	}
	return int8(v)
}
