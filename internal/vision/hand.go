package vision

// Point is a landmark in normalized image coordinates, y growing downwards.
type Point struct {
	X, Y float64
}

// Hand is the 21-point hand skeleton.
type Hand [21]Point

// Skeleton indices used for counting.
const (
	ThumbIP  = 3
	ThumbTip = 4
)

var (
	fingerTips = [4]int{8, 12, 16, 20}
	fingerPIPs = [4]int{6, 10, 14, 18}
)

// Digit identifies one finger.
type Digit int

const (
	Thumb Digit = iota
	Index
	Middle
	Ring
	Pinky
)

// Extended reports whether digit d is extended. The thumb is judged on the x
// axis of the mirrored frame, the other fingers on y.
func (h Hand) Extended(d Digit) bool {
	if d == Thumb {
		return h[ThumbTip].X > h[ThumbIP].X
	}
	i := int(d) - 1
	return h[fingerTips[i]].Y < h[fingerPIPs[i]].Y
}

// CountFingers returns the number of extended digits, 0..5.
func CountFingers(h Hand) int {
	n := 0
	for d := Thumb; d <= Pinky; d++ {
		if h.Extended(d) {
			n++
		}
	}
	return n
}

// FingersToIndex maps a finger count to a catalog index: N fingers select
// index N-1. Counts outside 1..size are no selection.
func FingersToIndex(count, size int) (int, bool) {
	if count < 1 || count > size {
		return -1, false
	}
	return count - 1, true
}
