package compat

import (
	"maps"
	"slices"
)

// BrowserSet is a set of browser identifiers, e.g. "chrome" or "firefox_android".
type BrowserSet map[string]struct{}

// NewBrowserSet returns a set containing the given browser identifiers.
func NewBrowserSet(browsers ...string) BrowserSet {
	s := make(BrowserSet, len(browsers))
	for _, b := range browsers {
		s.Add(b)
	}
	return s
}

func (s BrowserSet) Add(browser string) {
	s[browser] = struct{}{}
}

func (s BrowserSet) Has(browser string) bool {
	_, ok := s[browser]
	return ok
}

func (s BrowserSet) Len() int {
	return len(s)
}

// Union adds all the members of other to s, and returns s.
func (s BrowserSet) Union(other BrowserSet) BrowserSet {
	maps.Copy(s, other)
	return s
}

// Sorted returns the members of the set in lexicographic order.
// An empty set yields an empty (non-nil) slice.
func (s BrowserSet) Sorted() []string {
	if len(s) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(s))
}
