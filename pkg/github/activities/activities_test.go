package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/tzrikka/bcdreview/pkg/changes"
	"github.com/tzrikka/bcdreview/pkg/compat"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

type fakeAPI struct {
	mu sync.Mutex

	files    map[string]string // "owner/repo@sha:path" -> JSON.
	teams    []string
	current  reviewers.CurrentReviewers
	requests []reviewers.ReviewRequest

	teamCalls int
	err       error
}

func (f *fakeAPI) ListPullRequestFiles(_ context.Context, _, _ string, _ int) ([]changes.ChangedFile, error) {
	return nil, f.err
}

func (f *fakeAPI) GetJSONFile(_ context.Context, owner, repo, ref, path string) (compat.Value, error) {
	if f.err != nil {
		return compat.Value{}, f.err
	}
	content, ok := f.files[owner+"/"+repo+"@"+ref+":"+path]
	if !ok {
		return compat.Value{}, errors.New("404 not found")
	}
	return compat.Parse([]byte(content))
}

func (f *fakeAPI) ListTeamSlugs(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teamCalls++
	return f.teams, f.err
}

func (f *fakeAPI) ListRequestedReviewers(_ context.Context, _, _ string, _ int) (reviewers.CurrentReviewers, error) {
	return f.current, f.err
}

func (f *fakeAPI) RequestReviewers(_ context.Context, _, _ string, _ int, req reviewers.ReviewRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

var testPR = github.PullRequestRef{
	Owner:  "mdn",
	Repo:   "browser-compat-data",
	Number: 7,
	Base:   github.Ref{Owner: "mdn", Repo: "browser-compat-data", SHA: "base"},
	Head:   github.Ref{Owner: "fork", Repo: "browser-compat-data", SHA: "head"},
}

func TestAffectedBrowsers(t *testing.T) {
	api := &fakeAPI{files: map[string]string{
		"mdn/browser-compat-data@base:api/Foo.json": `{"api": {"Foo": {"__compat": {"support": {
			"chrome": {"version_added": "10"}, "firefox": {"version_added": "20"}}}}}}`,
		"fork/browser-compat-data@head:api/Foo.json": `{"api": {"Foo": {"__compat": {"support": {
			"chrome": {"version_added": "11"}, "firefox": {"version_added": "20"}}}}}}`,
		"fork/browser-compat-data@head:api/Bar.json": `{"api": {"Bar": {"__compat": {"support": {
			"safari": {"version_added": "1"}}}}}}`,
	}}

	a, err := New(api, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	files := []changes.ChangedFile{
		{Filename: "api/Foo.json", Status: changes.StatusModified},
		{Filename: "api/Bar.json", Status: changes.StatusAdded},
		{Filename: "docs/README.md", Status: changes.StatusModified},
	}
	got, err := a.AffectedBrowsers(t.Context(), testPR, files)
	if err != nil {
		t.Fatalf("AffectedBrowsers() error = %v", err)
	}
	if want := []string{"chrome", "safari"}; !reflect.DeepEqual(got, want) {
		t.Errorf("AffectedBrowsers() = %v, want %v", got, want)
	}
}

func TestAffectedBrowsersFetchError(t *testing.T) {
	a, err := New(&fakeAPI{err: errors.New("boom")}, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	files := []changes.ChangedFile{{Filename: "api/Foo.json", Status: changes.StatusModified}}
	if _, err := a.AffectedBrowsers(t.Context(), testPR, files); err == nil {
		t.Error("AffectedBrowsers() error = nil")
	}
}

func TestNewInvalidPattern(t *testing.T) {
	if _, err := New(&fakeAPI{}, Config{DataFilePatterns: []string{"api/[.json"}}); err == nil {
		t.Error("New() error = nil")
	}
}

func TestListTeamsCached(t *testing.T) {
	api := &fakeAPI{teams: []string{"chrome_reviewers", "mdnstaff"}}
	a, err := New(api, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	for range 3 {
		got, err := a.ListTeams(t.Context(), "mdn")
		if err != nil {
			t.Fatalf("ListTeams() error = %v", err)
		}
		if !reflect.DeepEqual(got, api.teams) {
			t.Errorf("ListTeams() = %v, want %v", got, api.teams)
		}
	}

	if api.teamCalls != 1 {
		t.Errorf("ListTeamSlugs() called %d times, want 1", api.teamCalls)
	}
}

func TestListTeamsErrorNotCached(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	a, err := New(api, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	_, _ = a.ListTeams(t.Context(), "mdn")
	_, _ = a.ListTeams(t.Context(), "mdn")
	if api.teamCalls != 2 {
		t.Errorf("ListTeamSlugs() called %d times, want 2", api.teamCalls)
	}
}

func TestPRFetcherRefFallback(t *testing.T) {
	pr := github.PullRequestRef{Owner: "mdn", Repo: "bcd", Head: github.Ref{SHA: "abc"}}
	f := prFetcher{pr: pr}

	want := github.Ref{Owner: "mdn", Repo: "bcd", SHA: "abc"}
	if got := f.ref(pr.Head); got != want {
		t.Errorf("ref() = %v, want %v", got, want)
	}
}

func TestRequestReviewersRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	api := &fakeAPI{}
	a, err := New(api, Config{ReviewsCSVFile: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	req := reviewers.ReviewRequest{Reviewers: []string{}, TeamReviewers: []string{"mdnstaff", "chrome_reviewers"}}
	if err := a.RequestReviewers(t.Context(), testPR, req); err != nil {
		t.Fatalf("RequestReviewers() error = %v", err)
	}

	if len(api.requests) != 1 || !reflect.DeepEqual(api.requests[0], req) {
		t.Errorf("API requests = %v, want [%v]", api.requests, req)
	}

	b, err := os.ReadFile(path) //gosec:disable G304 // Unit test with fake files.
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(b), ",mdn/browser-compat-data,7,mdnstaff chrome_reviewers\n") {
		t.Errorf("CSV file = %q", b)
	}
}
