package temporal

import (
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/github/workflows"
)

const (
	// SearchAttribute is a Temporal search attribute key used
	// by Timpani and the event dispatcher workflow.
	SearchAttribute = "WaitingForSignals"

	// EventDispatcher is the name and ID of the event dispatcher workflow.
	EventDispatcher = "event.dispatcher"

	drainInterval = 5 * time.Second
)

type Config struct {
	taskQueue string
}

// EventDispatcherWorkflow is an always-running singleton workflow that receives Temporal
// signals from [Timpani] and spawns event-specific child workflows to handle them.
//
// [Timpani]: https://pkg.go.dev/github.com/tzrikka/timpani/pkg/listeners
func (c Config) EventDispatcherWorkflow(ctx workflow.Context) error {
	// https://docs.temporal.io/develop/go/observability#visibility
	attr := temporal.NewSearchAttributeKeyKeywordList(SearchAttribute).ValueSet(workflows.Signals)
	if err := workflow.UpsertTypedSearchAttributes(ctx, attr); err != nil {
		return fmt.Errorf("failed to set workflow search attribute: %w", err)
	}

	sel := workflow.NewSelector(ctx)
	workflows.RegisterSignals(ctx, sel, c.taskQueue)

	for {
		sel.Select(ctx)

		// https://docs.temporal.io/develop/go/continue-as-new
		// https://docs.temporal.io/develop/go/message-passing#wait-for-message-handlers
		if info := workflow.GetInfo(ctx); info.GetContinueAsNewSuggested() {
			l := logger.From(ctx)
			l.Info("continue-as-new suggested by Temporal server",
				slog.Int("history_length", info.GetCurrentHistoryLength()),
				slog.Int("history_size", info.GetCurrentHistorySize()))

			// "Lame duck" mode: drain all signal channels before resetting workflow history,
			// in a slowed-down loop that continues until the worker is relatively idle.
			counter := 1
			for counter > 0 {
				_ = workflow.Sleep(ctx, drainInterval)
				counter = workflows.DrainSignals(ctx, c.taskQueue)
			}

			l.Warn("triggering workflow continue-as-new",
				slog.Int("history_length", info.GetCurrentHistoryLength()),
				slog.Int("history_size", info.GetCurrentHistorySize()))
			return workflow.NewContinueAsNewError(ctx, EventDispatcher)
		}
	}
}
