package slicetools

// Filter returns a new slice with the elements for which keep is true
func Filter[T any](slice []T, keep func(T) bool) []T {
	out := make([]T, 0, len(slice))
	for _, v := range slice {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Set builds a membership set from values
func Set[K comparable](values []K) map[K]bool {
	set := make(map[K]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Reverse returns a reversed copy of slice
func Reverse[T any](slice []T) []T {
	out := make([]T, len(slice))
	for i, v := range slice {
		out[len(slice)-1-i] = v
	}
	return out
}
