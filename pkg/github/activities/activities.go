// Package activities implements the Temporal activities which interact with
// GitHub on behalf of the pull request workflows, and workflow-side wrappers
// that execute them with consistent options and error logging.
package activities

import (
	"context"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/tzrikka/bcdreview/internal/cache"
	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/internal/otel"
	"github.com/tzrikka/bcdreview/pkg/changes"
	"github.com/tzrikka/bcdreview/pkg/compat"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/metrics"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

// Registered activity names.
const (
	ListFilesActivity              = "github.pulls.listFiles"
	AffectedBrowsersActivity       = "bcd.affectedBrowsers"
	ListTeamsActivity              = "github.teams.list"
	ListRequestedReviewersActivity = "github.pulls.listRequestedReviewers"
	RequestReviewersActivity       = "github.pulls.requestReviewers"
)

const DefaultTeamsCacheTTL = 10 * time.Minute

// API is the subset of [github.Client] used by the activities.
type API interface {
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]changes.ChangedFile, error)
	GetJSONFile(ctx context.Context, owner, repo, ref, path string) (compat.Value, error)
	ListTeamSlugs(ctx context.Context, org string) ([]string, error)
	ListRequestedReviewers(ctx context.Context, owner, repo string, number int) (reviewers.CurrentReviewers, error)
	RequestReviewers(ctx context.Context, owner, repo string, number int, req reviewers.ReviewRequest) error
}

// Registry is implemented by Temporal workers, as well as test workflow environments.
type Registry interface {
	RegisterActivityWithOptions(a any, options activity.RegisterOptions)
}

type Config struct {
	DataFilePatterns     []string
	MaxConcurrentFetches int
	TeamsCacheTTL        time.Duration
	ReviewsCSVFile       string
}

type Activities struct {
	api         API
	matcher     *changes.Matcher
	concurrency int

	teams    *cache.Cache[[]string]
	teamsTTL time.Duration

	reviewsFile string
}

func New(api API, cfg Config) (*Activities, error) {
	m, err := changes.NewMatcher(cfg.DataFilePatterns...)
	if err != nil {
		return nil, err
	}

	ttl := cfg.TeamsCacheTTL
	if ttl <= 0 {
		ttl = DefaultTeamsCacheTTL
	}

	return &Activities{
		api:         api,
		matcher:     m,
		concurrency: cfg.MaxConcurrentFetches,
		teams:       cache.New[[]string](ttl, cache.DefaultCleanupInterval),
		teamsTTL:    ttl,
		reviewsFile: cfg.ReviewsCSVFile,
	}, nil
}

// Close stops the background cleanup of the teams cache.
func (a *Activities) Close() {
	a.teams.Close()
}

func (a *Activities) Register(r Registry) {
	r.RegisterActivityWithOptions(a.ListFiles, activity.RegisterOptions{Name: ListFilesActivity})
	r.RegisterActivityWithOptions(a.AffectedBrowsers, activity.RegisterOptions{Name: AffectedBrowsersActivity})
	r.RegisterActivityWithOptions(a.ListTeams, activity.RegisterOptions{Name: ListTeamsActivity})
	r.RegisterActivityWithOptions(a.ListRequestedReviewers, activity.RegisterOptions{Name: ListRequestedReviewersActivity})
	r.RegisterActivityWithOptions(a.RequestReviewers, activity.RegisterOptions{Name: RequestReviewersActivity})
}

func (a *Activities) ListFiles(ctx context.Context, pr github.PullRequestRef) ([]changes.ChangedFile, error) {
	return a.api.ListPullRequestFiles(ctx, pr.Owner, pr.Repo, pr.Number)
}

// AffectedBrowsers diffs all the data files in a pull request,
// and returns the identifiers of the affected browsers, in sorted order.
func (a *Activities) AffectedBrowsers(ctx context.Context, pr github.PullRequestRef, files []changes.ChangedFile) ([]string, error) {
	ctx = logger.With(ctx, logger.PullRequest(pr.Owner, pr.Repo, pr.Number)...)
	f := prFetcher{api: a.api, pr: pr}

	browsers, err := changes.AffectedBrowsers(ctx, files, f,
		changes.WithMatcher(a.matcher), changes.WithConcurrency(a.concurrency))
	if err != nil {
		return nil, err
	}

	attrs := map[string]string{"repo": pr.Owner + "/" + pr.Repo}
	a.count(ctx, "pr.files.diffed", len(a.matcher.Filter(files)), attrs)
	a.count(ctx, "pr.browsers.affected", browsers.Len(), attrs)

	return browsers.Sorted(), nil
}

func (a *Activities) count(ctx context.Context, name string, n int, attrs map[string]string) {
	if err := otel.Add(ctx, name, int64(n), attrs); err != nil {
		logger.FromContext(ctx).Warn("failed to record metric", slog.Any("error", err), slog.String("name", name))
	}
}

// ListTeams returns the slugs of all the teams in a GitHub organization.
// Results are cached per organization, since they change very rarely.
func (a *Activities) ListTeams(ctx context.Context, org string) ([]string, error) {
	if slugs, ok := a.teams.Get(org); ok {
		return slugs, nil
	}

	slugs, err := a.api.ListTeamSlugs(ctx, org)
	if err != nil {
		return nil, err
	}

	a.teams.Set(org, slugs, a.teamsTTL)
	logger.FromContext(ctx).Debug("cached GitHub org teams", slog.String("org", org), slog.Int("teams", len(slugs)),
		slog.Int("cached_orgs", a.teams.ItemCount()), slog.Int("cache_entries", a.teams.Len()))
	return slugs, nil
}

func (a *Activities) ListRequestedReviewers(ctx context.Context, pr github.PullRequestRef) (reviewers.CurrentReviewers, error) {
	return a.api.ListRequestedReviewers(ctx, pr.Owner, pr.Repo, pr.Number)
}

func (a *Activities) RequestReviewers(ctx context.Context, pr github.PullRequestRef, req reviewers.ReviewRequest) error {
	logger.FromContext(ctx).Info("requesting PR reviewers", append(logger.PullRequest(pr.Owner, pr.Repo, pr.Number),
		slog.Any("reviewers", req.Reviewers), slog.Any("team_reviewers", req.TeamReviewers))...)
	if err := a.api.RequestReviewers(ctx, pr.Owner, pr.Repo, pr.Number, req); err != nil {
		return err
	}

	if err := metrics.RecordReviewRequest(a.reviewsFile, pr.Owner+"/"+pr.Repo, pr.Number, req.TeamReviewers); err != nil {
		logger.FromContext(ctx).Warn("failed to record review request", slog.Any("error", err))
	}
	return nil
}

// prFetcher retrieves data files from the base and head commits of a pull request.
type prFetcher struct {
	api API
	pr  github.PullRequestRef
}

func (f prFetcher) FetchOld(ctx context.Context, filename string) (compat.Value, error) {
	ref := f.ref(f.pr.Base)
	return f.api.GetJSONFile(ctx, ref.Owner, ref.Repo, ref.SHA, filename)
}

func (f prFetcher) FetchNew(ctx context.Context, filename string) (compat.Value, error) {
	ref := f.ref(f.pr.Head)
	return f.api.GetJSONFile(ctx, ref.Owner, ref.Repo, ref.SHA, filename)
}

// ref falls back to the pull request's own repository, if the
// event didn't specify where the commit resides (e.g. deleted forks).
func (f prFetcher) ref(r github.Ref) github.Ref {
	if r.Owner == "" || r.Repo == "" {
		r.Owner, r.Repo = f.pr.Owner, f.pr.Repo
	}
	return r
}
