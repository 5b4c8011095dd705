package metrics

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestRecordReviewRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")

	if err := RecordReviewRequest("", "mdn/bcd", 1, []string{"chrome_reviewers"}); err != nil {
		t.Fatalf("RecordReviewRequest(disabled) error = %v", err)
	}

	if err := RecordReviewRequest(path, "mdn/bcd", 7, []string{"chrome_reviewers", "edge_reviewers"}); err != nil {
		t.Fatal(err)
	}
	if err := RecordReviewRequest(path, "mdn/bcd", 8, []string{"safari_reviewers"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.ReadFile(path) //gosec:disable G304 // Unit test with fake files.
	if err != nil {
		t.Fatal(err)
	}

	// Ensure timestamps are deterministic for test comparison.
	got := regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`).ReplaceAllString(string(f), "TS")
	want := "TS,mdn/bcd,7,chrome_reviewers edge_reviewers\nTS,mdn/bcd,8,safari_reviewers\n"
	if got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestAppendToCSVFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "reviews.csv")
	if err := AppendToCSVFile(path, []string{"a"}); err == nil {
		t.Error("AppendToCSVFile() error = nil")
	}
}
