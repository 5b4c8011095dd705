package compat

const (
	// CompatKey is the key of a feature's compatibility record.
	CompatKey = "__compat"
	// SupportKey is the key of the browser support object in a compatibility record.
	SupportKey = "support"
)

// Path is a sequence of object keys, leading from a document's root to one of its nodes.
type Path []string

// Append returns a new path with the given keys added,
// without modifying the backing array of the original.
func (p Path) Append(keys ...string) Path {
	out := make(Path, 0, len(p)+len(keys))
	return append(append(out, p...), keys...)
}

// SupportPath returns the path to the support object of the
// compatibility record belonging to the feature at path p.
func (p Path) SupportPath() Path {
	return p.Append(CompatKey, SupportKey)
}

// LocateFeatureRoot descends from the root of the given document through objects with
// exactly one key (other than [CompatKey]), and returns the path to the first node that
// has a compatibility record. If it reaches anything else, the document is not in the
// expected format, and the second return value is false.
func LocateFeatureRoot(tree Value) (Path, bool) {
	path := Path{}
	node := tree

	for node.kind == Object && len(node.obj) == 1 {
		key := node.Keys()[0]
		if key == CompatKey {
			break
		}
		path = append(path, key)
		node = node.obj[key]
	}

	if !node.Truthy() || !node.Has(CompatKey) {
		return nil, false
	}
	return path, true
}

// PathExists reports whether the given path leads to a truthy value
// in the given document. An empty path refers to the root itself.
func PathExists(tree Value, path Path) bool {
	node := tree
	for _, key := range path {
		if !node.Truthy() || !node.Has(key) {
			return false
		}
		node = node.obj[key]
	}
	return node.Truthy()
}

// Resolve returns the value at the end of the given path in the given document.
// It should be used after [PathExists], otherwise the result may be [Missing].
func Resolve(tree Value, path Path) Value {
	node := tree
	for _, key := range path {
		node = node.Field(key)
	}
	return node
}
