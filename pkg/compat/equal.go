package compat

// Equal reports whether two values are structurally equal.
//
// Object keys are order-insensitive, and so are arrays, with a twist: two arrays are
// equal if they have the same length and every element in a has at least one equal
// element anywhere in b. This is an existence check, not a multiset comparison, so
// [x, x] equals [x, y] whenever x equals y. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case Missing, Null:
		return true
	case Array:
		return arrayEqual(a.arr, b.arr, Equal)
	case Object:
		if !arrayEqual(a.Keys(), b.Keys(), func(x, y string) bool { return x == y }) {
			return false
		}
		for k, v := range a.obj {
			if !Equal(v, b.obj[k]) {
				return false
			}
		}
		return true
	case String:
		return a.str == b.str
	case Number:
		return a.num == b.num
	case Bool:
		return a.b == b.b
	default:
		return false
	}
}

func arrayEqual[T any](a, b []T, eq func(x, y T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for _, x := range a {
		found := false
		for _, y := range b {
			if eq(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
