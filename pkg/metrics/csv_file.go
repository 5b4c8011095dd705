// Package metrics writes a local record of review requests, for simple setups
// without an OpenTelemetry collector. It complements the counters in
// the internal otel package, which are exported over OTLP.
package metrics

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tzrikka/xdg"
)

const (
	fileFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	filePerms = xdg.NewFilePermissions
)

var muReviews sync.Mutex

// RecordReviewRequest appends a line to a CSV file with the current time,
// the pull request's repository and number, and the requested teams.
// An empty path means this is disabled.
func RecordReviewRequest(path, repo string, number int, teams []string) error {
	if path == "" {
		return nil
	}

	muReviews.Lock()
	defer muReviews.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	return AppendToCSVFile(path, []string{now, repo, strconv.Itoa(number), strings.Join(teams, " ")})
}

func AppendToCSVFile(path string, record []string) error {
	f, err := os.OpenFile(path, fileFlags, filePerms) //gosec:disable G304 -- specified by admin by design
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
