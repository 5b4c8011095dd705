package changes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/compat"
)

// Fetcher retrieves and parses both versions of a file in a pull request:
// the old one from the base commit, and the new one from the head commit.
type Fetcher interface {
	FetchOld(ctx context.Context, filename string) (compat.Value, error)
	FetchNew(ctx context.Context, filename string) (compat.Value, error)
}

// Sides of a pull request, for [FetchError].
const (
	SideBase = "base"
	SideHead = "head"
)

// FetchError reports a failure to retrieve or parse a file from one side of a pull request.
type FetchError struct {
	Side     string
	Filename string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s version of %q: %v", e.Side, e.Filename, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type options struct {
	matcher     *Matcher
	concurrency int
}

type Option func(*options)

// WithMatcher overrides the default data file [Matcher].
func WithMatcher(m *Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithConcurrency limits the number of files being processed at the same time.
// Zero or negative values mean no limit.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// AffectedBrowsers fetches the old and new versions of all the qualifying data
// files in a pull request, diffs them, and returns the union of their affected
// browsers. Added files are compared against an empty document.
func AffectedBrowsers(ctx context.Context, files []ChangedFile, f Fetcher, opts ...Option) (compat.BrowserSet, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.matcher == nil {
		m, err := NewMatcher()
		if err != nil {
			return nil, err
		}
		o.matcher = m
	}

	files = o.matcher.Filter(files)
	l := logger.FromContext(ctx)
	l.Debug("diffing data files in PR", slog.Int("count", len(files)))

	g, ctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	var mu sync.Mutex
	browsers := compat.BrowserSet{}

	for _, file := range files {
		g.Go(func() error {
			diff, err := diffFile(ctx, f, file)
			if err != nil {
				return err
			}

			l.Debug("diffed data file", slog.String("filename", file.Filename),
				slog.String("status", file.Status), slog.Any("browsers", diff.Sorted()))

			mu.Lock()
			defer mu.Unlock()
			browsers.Union(diff)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return browsers, nil
}

// diffFile fetches both versions of a single file concurrently, and diffs them.
func diffFile(ctx context.Context, f Fetcher, file ChangedFile) (compat.BrowserSet, error) {
	oldTree, newTree := compat.EmptyObject(), compat.Value{}

	g, ctx := errgroup.WithContext(ctx)
	if file.Status == StatusModified {
		g.Go(func() error {
			v, err := f.FetchOld(ctx, file.Filename)
			if err != nil {
				return &FetchError{Side: SideBase, Filename: file.Filename, Err: err}
			}
			oldTree = v
			return nil
		})
	}
	g.Go(func() error {
		v, err := f.FetchNew(ctx, file.Filename)
		if err != nil {
			return &FetchError{Side: SideHead, Filename: file.Filename, Err: err}
		}
		newTree = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compat.DiffDocument(oldTree, newTree), nil
}
