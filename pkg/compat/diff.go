package compat

// DiffFeature compares the old and new support objects of a single feature,
// and returns the browsers whose new support data is not null-like and
// differs from the old data. Browsers which appear only in the old
// support object are ignored: removals don't require a browser review.
func DiffFeature(oldSupport, newSupport Value) BrowserSet {
	browsers := BrowserSet{}
	if newSupport.kind != Object {
		return browsers
	}

	for browser, n := range newSupport.obj {
		if IsNullLike(n) {
			continue
		}
		if !Equal(oldSupport.Field(browser), n) {
			browsers.Add(browser)
		}
	}

	return browsers
}

// DiffDocument compares the old and new versions of a browser-compat-data document,
// and returns the browsers with meaningful changes in the document's main feature,
// or in any of its direct sub-features. Deeper sub-features are not checked.
//
// Documents that are not in the expected format (i.e. without a compatibility record
// that contains a support object) have no affected browsers. If the old document is
// missing a support object, it is treated as empty.
func DiffDocument(oldTree, newTree Value) BrowserSet {
	root, ok := LocateFeatureRoot(newTree)
	if !ok {
		return BrowserSet{}
	}

	supportPath := root.SupportPath()
	if !PathExists(newTree, supportPath) {
		return BrowserSet{}
	}

	browsers := diffSupport(oldTree, newTree, supportPath)

	feature := Resolve(newTree, root)
	if feature.Len() <= 1 {
		return browsers
	}

	for _, key := range feature.Keys() {
		if key == CompatKey {
			continue
		}
		subPath := root.Append(key).SupportPath()
		if !PathExists(newTree, subPath) {
			continue
		}
		browsers.Union(diffSupport(oldTree, newTree, subPath))
	}

	return browsers
}

func diffSupport(oldTree, newTree Value, supportPath Path) BrowserSet {
	oldSupport := EmptyObject()
	if PathExists(oldTree, supportPath) {
		oldSupport = Resolve(oldTree, supportPath)
	}
	return DiffFeature(oldSupport, Resolve(newTree, supportPath))
}
