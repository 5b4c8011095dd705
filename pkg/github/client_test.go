package github

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/tzrikka/bcdreview/pkg/changes"
	"github.com/tzrikka/bcdreview/pkg/compat"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

const paymentAddress = `{"api": {"PaymentAddress": {"__compat": {"support": {"chrome": {"version_added": 45}}}}}}`

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, StaticToken("tok"), 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Error(err)
	}
}

func TestNewClientBaseURL(t *testing.T) {
	c, err := NewClient("https://ghe.example.com/api/v3", nil, 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if got, want := c.gh.BaseURL.String(), "https://ghe.example.com/api/v3/"; got != want {
		t.Errorf("BaseURL = %q, want %q", got, want)
	}

	c, err = NewClient("", nil, 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if got := c.gh.BaseURL.String(); got != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", got, DefaultBaseURL)
	}
}

func TestListPullRequestFiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mdn/bcd/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization header = %q", got)
		}

		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, []map[string]string{{"filename": "README.md", "status": "modified"}})
			return
		}

		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2&per_page=100>; rel="next"`, r.Host, r.URL.Path))
		writeJSON(t, w, []map[string]string{
			{"filename": "api/PaymentAddress.json", "status": "modified"},
			{"filename": "api/Foo.json", "status": "added"},
		})
	})

	got, err := newTestClient(t, mux).ListPullRequestFiles(t.Context(), "mdn", "bcd", 7)
	if err != nil {
		t.Fatalf("ListPullRequestFiles() error = %v", err)
	}

	want := []changes.ChangedFile{
		{Filename: "api/PaymentAddress.json", Status: changes.StatusModified},
		{Filename: "api/Foo.json", Status: changes.StatusAdded},
		{Filename: "README.md", Status: changes.StatusModified},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListPullRequestFiles() = %v, want %v", got, want)
	}
}

func TestListPullRequestFilesError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mdn/bcd/pulls/7/files", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})

	if _, err := newTestClient(t, mux).ListPullRequestFiles(t.Context(), "mdn", "bcd", 7); err == nil {
		t.Error("ListPullRequestFiles() error = nil")
	}
}

func TestGetJSONFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mdn/bcd/contents/api/PaymentAddress.json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "abc123" {
			t.Errorf("ref = %q, want %q", got, "abc123")
		}
		writeJSON(t, w, map[string]any{
			"type":     "file",
			"name":     "PaymentAddress.json",
			"path":     "api/PaymentAddress.json",
			"encoding": "base64",
			"size":     len(paymentAddress),
			"content":  base64.StdEncoding.EncodeToString([]byte(paymentAddress)),
		})
	})
	mux.HandleFunc("GET /repos/mdn/bcd/contents/api/Broken.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("{not json")),
		})
	})
	mux.HandleFunc("GET /repos/mdn/bcd/contents/api", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{"type": "file", "name": "PaymentAddress.json"}})
	})

	c := newTestClient(t, mux)

	got, err := c.GetJSONFile(t.Context(), "mdn", "bcd", "abc123", "api/PaymentAddress.json")
	if err != nil {
		t.Fatalf("GetJSONFile() error = %v", err)
	}
	if want := compat.MustParse(paymentAddress); !compat.Equal(got, want) {
		t.Errorf("GetJSONFile() = %s, want %s", got, want)
	}

	if _, err := c.GetJSONFile(t.Context(), "mdn", "bcd", "abc123", "api/Broken.json"); err == nil {
		t.Error("GetJSONFile(invalid JSON) error = nil")
	}
	if _, err := c.GetJSONFile(t.Context(), "mdn", "bcd", "abc123", "api"); err == nil {
		t.Error("GetJSONFile(directory) error = nil")
	}
	if _, err := c.GetJSONFile(t.Context(), "mdn", "bcd", "abc123", "api/Missing.json"); err == nil {
		t.Error("GetJSONFile(missing) error = nil")
	}
}

func TestListTeamSlugs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orgs/mdn/teams", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, []map[string]string{{"slug": "safari_reviewers"}})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
		writeJSON(t, w, []map[string]string{{"slug": "chrome_reviewers"}, {"slug": "mdnstaff"}})
	})

	got, err := newTestClient(t, mux).ListTeamSlugs(t.Context(), "mdn")
	if err != nil {
		t.Fatalf("ListTeamSlugs() error = %v", err)
	}
	if want := []string{"chrome_reviewers", "mdnstaff", "safari_reviewers"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListTeamSlugs() = %v, want %v", got, want)
	}
}

func TestListRequestedReviewers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mdn/bcd/pulls/7/requested_reviewers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"users": []map[string]string{{"login": "testuser"}},
			"teams": []map[string]string{{"slug": "mdnstaff"}},
		})
	})

	got, err := newTestClient(t, mux).ListRequestedReviewers(t.Context(), "mdn", "bcd", 7)
	if err != nil {
		t.Fatalf("ListRequestedReviewers() error = %v", err)
	}
	want := reviewers.CurrentReviewers{Users: []string{"testuser"}, Teams: []string{"mdnstaff"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListRequestedReviewers() = %v, want %v", got, want)
	}
}

func TestRequestReviewers(t *testing.T) {
	var body map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/mdn/bcd/pulls/7/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"number": 7})
	})

	req := reviewers.ReviewRequest{
		Reviewers:     []string{"testuser"},
		TeamReviewers: []string{"mdnstaff", "chrome_reviewers"},
	}
	if err := newTestClient(t, mux).RequestReviewers(t.Context(), "mdn", "bcd", 7, req); err != nil {
		t.Fatalf("RequestReviewers() error = %v", err)
	}

	want := map[string][]string{
		"reviewers":      {"testuser"},
		"team_reviewers": {"mdnstaff", "chrome_reviewers"},
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("request body = %v, want %v", body, want)
	}
}
