// Package compat detects which browsers gained meaningful new data in a change
// to a [browser-compat-data] JSON file.
//
// Each file in that repository describes a feature (and optionally its direct
// sub-features), wrapped in single-key parent objects which mirror the file's path.
// Every feature holds a "__compat" record, whose "support" object maps browser
// identifiers to one support statement or a list of them. [DiffDocument] compares
// the old and new versions of such a document, and reports the browsers whose
// non-null support data changed.
//
// [browser-compat-data]: https://github.com/mdn/browser-compat-data
package compat
