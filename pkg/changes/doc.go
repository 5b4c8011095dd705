// Package changes aggregates the browsers affected by all the
// browser-compat-data files which were modified in a pull request.
//
// File contents are retrieved through a [Fetcher], which is implemented by
// the GitHub client in production and by in-memory fakes in tests. Fetching
// and diffing is done concurrently per file, and any fetch error fails the
// entire aggregation: partial results are never reported.
package changes
