package common

import "math"

// Coalesce picks the first of values that is not T's zero value, falling back to the zero value.
// Used for "named or generated" defaults such as unnamed imported clips.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp01 limits v to the [0, 1] range.
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// InUnitRange reports whether v lies within [0, 1].
func InUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
