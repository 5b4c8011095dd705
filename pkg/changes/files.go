package changes

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// File statuses, as reported by GitHub's "list pull request files" API.
const (
	StatusAdded     = "added"
	StatusModified  = "modified"
	StatusRemoved   = "removed"
	StatusRenamed   = "renamed"
	StatusCopied    = "copied"
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
)

// DefaultPattern matches browser-compat-data files.
const DefaultPattern = "**/*.json"

// ChangedFile describes a single file in a pull request.
type ChangedFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// Matcher selects data files by their path, using doublestar glob patterns.
type Matcher struct {
	patterns []string
}

// NewMatcher validates the given glob patterns. If none are
// specified, the matcher uses [DefaultPattern] on its own.
func NewMatcher(patterns ...string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid data file pattern: %q", p)
		}
	}

	return &Matcher{patterns: patterns}, nil
}

// Match reports whether the given file path matches any of the matcher's patterns.
func (m *Matcher) Match(path string) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Qualifies reports whether the file should be diffed: it must be
// a data file which was either added or modified in the pull request.
func (m *Matcher) Qualifies(f ChangedFile) bool {
	if f.Status != StatusAdded && f.Status != StatusModified {
		return false
	}
	return m.Match(f.Filename)
}

// Filter returns the files that [Matcher.Qualifies] accepts, in their original order.
func (m *Matcher) Filter(files []ChangedFile) []ChangedFile {
	var out []ChangedFile
	for _, f := range files {
		if m.Qualifies(f) {
			out = append(out, f)
		}
	}
	return out
}
