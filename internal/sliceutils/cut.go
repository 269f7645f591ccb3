package sliceutils

// Cut returns slice[start:end] with both bounds clamped to the slice.
// Negative bounds count back from the end, so Cut(s, -n, len(s)) keeps the
// last n elements.
func Cut[T any](slice []T, start, end int) []T {
	if len(slice) == 0 {
		return slice
	}

	if start < 0 {
		start = len(slice) + start
	}
	if end < 0 {
		end = len(slice) + end
	}

	start = max(start, 0)
	end = min(end, len(slice))
	if start >= end {
		return slice[:0]
	}

	return slice[start:end]
}

// Last returns the last n elements of slice.
func Last[T any](slice []T, n int) []T {
	if n <= 0 {
		return slice[:0]
	}
	return Cut(slice, -n, len(slice))
}
