package activities

import (
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/changes"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

var activityOpts = workflow.ActivityOptions{
	ScheduleToStartTimeout: time.Minute,
	StartToCloseTimeout:    30 * time.Second,
	RetryPolicy: &temporal.RetryPolicy{
		MaximumAttempts: 5,
	},
}

// aggregationOpts allows for many sequential batches of concurrent
// file fetches, each bounded by the GitHub client's HTTP timeout.
var aggregationOpts = workflow.ActivityOptions{
	ScheduleToStartTimeout: time.Minute,
	StartToCloseTimeout:    10 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		MaximumAttempts: 5,
	},
}

// OptionsFor returns the activity options of a registered activity name.
func OptionsFor(name string) workflow.ActivityOptions {
	if name == AffectedBrowsersActivity {
		return aggregationOpts
	}
	return activityOpts
}

func execute(ctx workflow.Context, name string, result any, args ...any) error {
	ctx = workflow.WithActivityOptions(ctx, OptionsFor(name))
	return workflow.ExecuteActivity(ctx, name, args...).Get(ctx, result)
}

func prAttrs(pr github.PullRequestRef) []any {
	return logger.PullRequest(pr.Owner, pr.Repo, pr.Number)
}

func ListPullRequestFiles(ctx workflow.Context, pr github.PullRequestRef) ([]changes.ChangedFile, error) {
	var files []changes.ChangedFile
	if err := execute(ctx, ListFilesActivity, &files, pr); err != nil {
		logger.From(ctx).Error("failed to list GitHub PR files", append(prAttrs(pr), slog.Any("error", err))...)
		return nil, err
	}
	return files, nil
}

func AffectedBrowsers(ctx workflow.Context, pr github.PullRequestRef, files []changes.ChangedFile) ([]string, error) {
	var browsers []string
	if err := execute(ctx, AffectedBrowsersActivity, &browsers, pr, files); err != nil {
		logger.From(ctx).Error("failed to diff data files in GitHub PR", append(prAttrs(pr), slog.Any("error", err))...)
		return nil, err
	}
	return browsers, nil
}

func ListTeams(ctx workflow.Context, org string) ([]string, error) {
	var slugs []string
	if err := execute(ctx, ListTeamsActivity, &slugs, org); err != nil {
		logger.From(ctx).Error("failed to list GitHub org teams", slog.Any("error", err), slog.String("org", org))
		return nil, err
	}
	return slugs, nil
}

func ListRequestedReviewers(ctx workflow.Context, pr github.PullRequestRef) (reviewers.CurrentReviewers, error) {
	var current reviewers.CurrentReviewers
	if err := execute(ctx, ListRequestedReviewersActivity, &current, pr); err != nil {
		logger.From(ctx).Error("failed to list GitHub PR reviewers", append(prAttrs(pr), slog.Any("error", err))...)
		return reviewers.CurrentReviewers{}, err
	}
	return current, nil
}

func RequestReviewers(ctx workflow.Context, pr github.PullRequestRef, req reviewers.ReviewRequest) error {
	if err := execute(ctx, RequestReviewersActivity, nil, pr, req); err != nil {
		logger.From(ctx).Error("failed to request GitHub PR reviewers", append(prAttrs(pr), slog.Any("error", err))...)
		return err
	}
	return nil
}
