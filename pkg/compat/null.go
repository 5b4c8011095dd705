package compat

// IsNullLike reports whether a value carries no information: it is null,
// or an array or object whose members are all null-like (including empty
// ones). Any other scalar, even false or 0, is meaningful data.
func IsNullLike(v Value) bool {
	switch v.kind {
	case Null:
		return true
	case Array:
		for _, e := range v.arr {
			if !IsNullLike(e) {
				return false
			}
		}
		return true
	case Object:
		for _, e := range v.obj {
			if !IsNullLike(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
