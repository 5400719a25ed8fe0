// Package dedupe removes repeated values from reference-id lists.
package dedupe

// Values removes duplicates and zero values from a slice. Order is preserved
// and the input is never modified.
//
// Example:
//
//	Values([]int64{3, 0, 1, 3})
//	// Returns: []int64{3, 1}
func Values[T comparable](values []T) []T {
	if len(values) == 0 {
		return nil
	}

	var zero T
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))

	for _, v := range values {
		if v == zero {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
