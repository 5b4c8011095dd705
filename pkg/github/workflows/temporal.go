// Package workflows handles GitHub pull request events in Temporal workflows.
package workflows

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/otel"
	"github.com/tzrikka/bcdreview/pkg/config"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/reviewers"
)

type Config struct {
	TeamSuffix string
	TeamMap    map[string]string
}

func newConfig(cmd *cli.Command) *Config {
	suffix := cmd.String("team-slug-suffix")
	if suffix == "" {
		suffix = reviewers.DefaultTeamSuffix
	}

	return &Config{
		TeamSuffix: suffix,
		TeamMap:    config.KVSliceToMap(cmd.StringSlice("browser-team-map")),
	}
}

// Signals is a list of signal names that are received
// from Timpani, to trigger event handling workflows.
//
// This is based on:
//   - https://docs.github.com/en/webhooks/webhook-events-and-payloads#pull_request
//   - https://github.com/tzrikka/timpani/blob/main/pkg/listeners/github/webhook.go
var Signals = []string{
	"github.events.pull_request",
}

// RegisterWorkflows maps event-handling workflow functions to [Signals].
func RegisterWorkflows(cmd *cli.Command, w worker.Worker) {
	c := newConfig(cmd)
	w.RegisterWorkflowWithOptions(c.PullRequestWorkflow, workflow.RegisterOptions{Name: Signals[0]})
}

// RegisterSignals routes [Signals] to their registered workflows.
func RegisterSignals(ctx workflow.Context, sel workflow.Selector, taskQueue string) {
	sel.AddReceive(workflow.GetSignalChannel(ctx, Signals[0]), func(ch workflow.ReceiveChannel, _ bool) {
		payload := new(github.PullRequestEvent)
		ch.Receive(ctx, payload)

		signal := ch.Name()
		otel.SignalReceived(ctx, signal, false)

		// https://docs.temporal.io/develop/go/child-workflows#parent-close-policy
		ctx = workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:        childWorkflowID(ctx, payload),
			TaskQueue:         taskQueue,
			ParentClosePolicy: enums.PARENT_CLOSE_POLICY_ABANDON,
		})
		_ = workflow.ExecuteChildWorkflow(ctx, signal, payload).GetChildWorkflowExecution().Get(ctx, nil)
	})
}

// DrainSignals drains all pending [Signals] channels, and waits
// for their corresponding workflow executions to complete in order.
// This is called in preparation for resetting the dispatcher workflow's history.
func DrainSignals(ctx workflow.Context, taskQueue string) int {
	ch := workflow.GetSignalChannel(ctx, Signals[0])
	signalEvents := 0
	for {
		payload := new(github.PullRequestEvent)
		if !ch.ReceiveAsync(payload) {
			break
		}

		otel.SignalReceived(ctx, Signals[0], true)
		signalEvents++

		ctx = workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: childWorkflowID(ctx, payload),
			TaskQueue:  taskQueue,
		})
		_ = workflow.ExecuteChildWorkflow(ctx, Signals[0], payload).Get(ctx, nil)
	}
	return signalEvents
}

func childWorkflowID(ctx workflow.Context, event *github.PullRequestEvent) string {
	path := trimURLPrefix(event.PullRequest.HTMLURL)
	if path == "" {
		pr := event.PullRequestRef()
		if pr.Owner == "" || pr.Repo == "" || pr.Number == 0 {
			return "" // Fallback in case of unexpected payloads: let Temporal use its own default.
		}
		path = fmt.Sprintf("%s/%s/pull/%d", pr.Owner, pr.Repo, pr.Number)
	}
	id := fmt.Sprintf("%s_%s", event.Action, path)

	var ts int64
	encoded := workflow.SideEffect(ctx, func(_ workflow.Context) any {
		return time.Now().UnixMilli()
	})
	if err := encoded.Get(&ts); err != nil {
		return id
	}
	return fmt.Sprintf("%s__%s", id, strconv.FormatInt(ts, 36))
}

func trimURLPrefix(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.TrimPrefix(u.Path, "/")
}
