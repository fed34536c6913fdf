package helpers

// SameStringSet reports whether two slices contain the same set of strings,
// ignoring order and duplicates.
func SameStringSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

// UnionStrings merges the given slices into one deduplicated slice. Order of
// the result is unspecified.
func UnionStrings(slices ...[]string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range slices {
		for _, v := range s {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// ItemInSlice reports whether item is present in slice.
func ItemInSlice[T comparable](item T, slice []T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// RemoveFromSlice returns slice without every occurrence of item.
func RemoveFromSlice[T comparable](slice []T, item T) []T {
	out := make([]T, 0, len(slice))
	for _, v := range slice {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}
