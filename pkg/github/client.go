package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v71/github"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/changes"
	"github.com/tzrikka/bcdreview/pkg/compat"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

const (
	DefaultBaseURL = "https://api.github.com/"
	DefaultTimeout = 30 * time.Second

	perPage = 100
)

// TokenSource provides GitHub API tokens on demand,
// so they can be rotated without restarting the worker.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a [TokenSource] with a fixed token (e.g. a PAT).
// An empty token means unauthenticated API calls.
type StaticToken string

func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}

type authTransport struct {
	tokens TokenSource
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub API token: %w", err)
	}

	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

// Client is a thin wrapper over the GitHub REST API, exposing only the operations
// needed to review pull requests. All list operations handle pagination internally.
type Client struct {
	gh *gh.Client
}

// NewClient initializes a GitHub API client. The base URL is optional
// (for GitHub Enterprise Server it should end with "/api/v3/").
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) (*Client, error) {
	if tokens == nil {
		tokens = StaticToken("")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{
		Timeout:   timeout,
		Transport: &authTransport{tokens: tokens, base: http.DefaultTransport},
	}
	c := gh.NewClient(hc)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL: %w", err)
		}
		c.BaseURL = u
	}

	return &Client{gh: c}, nil
}

// paginate calls a GitHub list API repeatedly, until there are no more pages.
func paginate[T any](list func(opts *gh.ListOptions) ([]T, *gh.Response, error)) ([]T, error) {
	opts := &gh.ListOptions{PerPage: perPage}
	var all []T

	for {
		page, resp, err := list(opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListPullRequestFiles is based on:
// https://docs.github.com/en/rest/pulls/pulls?apiVersion=2022-11-28#list-pull-requests-files
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]changes.ChangedFile, error) {
	files, err := paginate(func(opts *gh.ListOptions) ([]*gh.CommitFile, *gh.Response, error) {
		return c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files in PR %s/%s#%d: %w", owner, repo, number, err)
	}

	out := make([]changes.ChangedFile, 0, len(files))
	for _, f := range files {
		out = append(out, changes.ChangedFile{Filename: f.GetFilename(), Status: f.GetStatus()})
	}
	return out, nil
}

// GetJSONFile retrieves a file from a specific commit, and parses it as JSON. It is based on:
// https://docs.github.com/en/rest/repos/contents?apiVersion=2022-11-28#get-repository-content
func (c *Client) GetJSONFile(ctx context.Context, owner, repo, ref, path string) (compat.Value, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, dir, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return compat.Value{}, fmt.Errorf("failed to get %q from %s/%s@%s: %w", path, owner, repo, ref, err)
	}
	if file == nil {
		return compat.Value{}, fmt.Errorf("%q in %s/%s@%s is a directory with %d entries", path, owner, repo, ref, len(dir))
	}

	var content []byte
	if file.GetEncoding() == "none" {
		// Files larger than 1 MB are not inlined in the response.
		logger.FromContext(ctx).Debug("downloading large GitHub file", slog.String("path", path),
			slog.String("ref", ref), slog.Int("size", file.GetSize()))
		content, err = c.download(ctx, owner, repo, ref, path)
	} else {
		var s string
		s, err = file.GetContent()
		content = []byte(s)
	}
	if err != nil {
		return compat.Value{}, fmt.Errorf("failed to read %q from %s/%s@%s: %w", path, owner, repo, ref, err)
	}

	v, err := compat.Parse(content)
	if err != nil {
		return compat.Value{}, fmt.Errorf("failed to parse %q from %s/%s@%s as JSON: %w", path, owner, repo, ref, err)
	}
	return v, nil
}

func (c *Client) download(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	rc, _, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, err
	}

	b, err := io.ReadAll(rc)
	return b, errors.Join(err, rc.Close())
}

// ListTeamSlugs is based on:
// https://docs.github.com/en/rest/teams/teams?apiVersion=2022-11-28#list-teams
func (c *Client) ListTeamSlugs(ctx context.Context, org string) ([]string, error) {
	teams, err := paginate(func(opts *gh.ListOptions) ([]*gh.Team, *gh.Response, error) {
		return c.gh.Teams.ListTeams(ctx, org, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams in GitHub org %q: %w", org, err)
	}

	slugs := make([]string, 0, len(teams))
	for _, t := range teams {
		slugs = append(slugs, t.GetSlug())
	}
	return slugs, nil
}

// ListRequestedReviewers is based on:
// https://docs.github.com/en/rest/pulls/review-requests?apiVersion=2022-11-28#get-all-requested-reviewers-for-a-pull-request
func (c *Client) ListRequestedReviewers(ctx context.Context, owner, repo string, number int) (reviewers.CurrentReviewers, error) {
	current := reviewers.CurrentReviewers{Users: []string{}, Teams: []string{}}
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		rs, resp, err := c.gh.PullRequests.ListReviewers(ctx, owner, repo, number, opts)
		if err != nil {
			return reviewers.CurrentReviewers{}, fmt.Errorf("failed to list requested reviewers in PR %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, u := range rs.Users {
			current.Users = append(current.Users, u.GetLogin())
		}
		for _, t := range rs.Teams {
			current.Teams = append(current.Teams, t.GetSlug())
		}

		if resp == nil || resp.NextPage == 0 {
			return current, nil
		}
		opts.Page = resp.NextPage
	}
}

// RequestReviewers is based on:
// https://docs.github.com/en/rest/pulls/review-requests?apiVersion=2022-11-28#request-reviewers-for-a-pull-request
func (c *Client) RequestReviewers(ctx context.Context, owner, repo string, number int, req reviewers.ReviewRequest) error {
	r := gh.ReviewersRequest{Reviewers: req.Reviewers, TeamReviewers: req.TeamReviewers}
	if _, _, err := c.gh.PullRequests.RequestReviewers(ctx, owner, repo, number, r); err != nil {
		return fmt.Errorf("failed to request reviewers in PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}
