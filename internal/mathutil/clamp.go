package mathutil

import "cmp"

// Clamp limits x to [lo, hi]. lo wins when the range is empty.
func Clamp[T cmp.Ordered](x, lo, hi T) T {
	return max(lo, min(x, hi))
}
