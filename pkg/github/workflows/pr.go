package workflows

import (
	"log/slog"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/internal/otel"
	"github.com/tzrikka/bcdreview/pkg/compat"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/github/activities"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

// Actions which may change the data files in a pull request.
const (
	ActionOpened      = "opened"
	ActionSynchronize = "synchronize"
)

// Reviewable reports whether a pull request event action should trigger a review assignment.
func Reviewable(action string) bool {
	return action == ActionOpened || action == ActionSynchronize
}

// PullRequestWorkflow requests reviews from the teams of all the browsers whose
// support data was changed by a pull request, in addition to its current reviewers.
// It is triggered whenever a pull request is opened, or new commits are pushed to it.
func (c *Config) PullRequestWorkflow(ctx workflow.Context, event github.PullRequestEvent) error {
	pr := event.PullRequestRef()
	l := log.With(logger.From(ctx), logger.PullRequest(pr.Owner, pr.Repo, pr.Number)...)

	if !Reviewable(event.Action) {
		l.Debug("ignoring GitHub PR event", slog.String("action", event.Action))
		return nil
	}

	files, err := activities.ListPullRequestFiles(ctx, pr)
	if err != nil {
		return err
	}

	browsers, err := activities.AffectedBrowsers(ctx, pr, files)
	if err != nil {
		return err
	}
	if len(browsers) == 0 {
		l.Info("no browser support changes in GitHub PR", slog.Int("files", len(files)))
		return nil
	}

	org := pr.Owner
	if event.Organization != nil && event.Organization.Login != "" {
		org = event.Organization.Login
	}
	teams, err := activities.ListTeams(ctx, org)
	if err != nil {
		return err
	}

	current, err := activities.ListRequestedReviewers(ctx, pr)
	if err != nil {
		return err
	}

	req := reviewers.BuildReviewRequest(compat.NewBrowserSet(browsers...), teams, current,
		reviewers.WithTeamSuffix(c.TeamSuffix), reviewers.WithTeamMap(c.TeamMap))
	added := req.Adds(current)
	if len(added) == 0 {
		l.Info("no new review teams for GitHub PR", slog.Any("browsers", browsers))
		return nil
	}

	if err := activities.RequestReviewers(ctx, pr, req); err != nil {
		return err
	}

	l.Info("requested review teams for GitHub PR", slog.Any("browsers", browsers), slog.Any("teams", added))
	otel.IncrementCounter(ctx, "pr.teams.requested", int64(len(added)), map[string]string{"repo": pr.Owner + "/" + pr.Repo})
	return nil
}
