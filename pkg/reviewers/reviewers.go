// Package reviewers maps browsers which were affected by a pull request
// to the GitHub teams that should review it.
package reviewers

import (
	"slices"

	"github.com/tzrikka/bcdreview/pkg/compat"
)

// DefaultTeamSuffix is appended to a browser identifier to form the slug of its review team.
const DefaultTeamSuffix = "_reviewers"

// CurrentReviewers is a snapshot of a pull request's requested reviewers.
type CurrentReviewers struct {
	Users []string `json:"users"` // GitHub user logins.
	Teams []string `json:"teams"` // GitHub team slugs.
}

// ReviewRequest is the complete set of reviewers to request for a pull request.
// It is based on: https://docs.github.com/en/rest/pulls/review-requests#request-reviewers-for-a-pull-request
type ReviewRequest struct {
	Reviewers     []string `json:"reviewers"`
	TeamReviewers []string `json:"team_reviewers"`
}

// Adds returns the team slugs in the request that are not already requested.
func (r ReviewRequest) Adds(current CurrentReviewers) []string {
	var added []string
	for _, slug := range r.TeamReviewers {
		if !slices.Contains(current.Teams, slug) {
			added = append(added, slug)
		}
	}
	return added
}

type options struct {
	suffix string
	teams  map[string]string
}

type Option func(*options)

// WithTeamSuffix overrides [DefaultTeamSuffix].
func WithTeamSuffix(suffix string) Option {
	return func(o *options) {
		o.suffix = suffix
	}
}

// WithTeamMap maps specific browsers to review team slugs which don't follow
// the suffix convention, e.g. "firefox_android" to "firefox_reviewers".
func WithTeamMap(m map[string]string) Option {
	return func(o *options) {
		o.teams = m
	}
}

func (o *options) slug(browser string) string {
	if slug := o.teams[browser]; slug != "" {
		return slug
	}
	return browser + o.suffix
}

// TeamSlugs returns the review team slugs of the given browsers (in sorted browser order),
// but only those which exist in the given list of organization teams.
// Browsers without a corresponding team are silently ignored.
func TeamSlugs(affected compat.BrowserSet, orgTeams []string, opts ...Option) []string {
	o := &options{suffix: DefaultTeamSuffix}
	for _, opt := range opts {
		opt(o)
	}

	var slugs []string
	for _, browser := range affected.Sorted() {
		if slug := o.slug(browser); slices.Contains(orgTeams, slug) && !slices.Contains(slugs, slug) {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}

// BuildReviewRequest merges the currently-requested team reviewers with the review teams
// of the affected browsers, without repetitions. Individual reviewers are passed through
// as-is. The result replaces (rather than adds to) the PR's set of requested reviewers.
func BuildReviewRequest(affected compat.BrowserSet, orgTeams []string, current CurrentReviewers, opts ...Option) ReviewRequest {
	teams := make([]string, 0, len(current.Teams)+affected.Len())
	for _, slug := range slices.Concat(current.Teams, TeamSlugs(affected, orgTeams, opts...)) {
		if !slices.Contains(teams, slug) {
			teams = append(teams, slug)
		}
	}

	users := current.Users
	if users == nil {
		users = []string{}
	}

	return ReviewRequest{
		Reviewers:     users,
		TeamReviewers: teams,
	}
}
