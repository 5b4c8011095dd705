// Package temporal initializes a Temporal worker, with all
// the workflows and activities that review pull requests.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/internal/otel"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/github/activities"
	"github.com/tzrikka/bcdreview/pkg/github/workflows"
	"github.com/tzrikka/bcdreview/pkg/webhook"
)

// Run initializes the Temporal worker, and blocks.
func Run(ctx context.Context, cmd *cli.Command) error {
	l := logger.FromContext(ctx)

	provider, err := otel.InitMetrics(ctx, otel.Config{
		Disabled:    cmd.Bool("otlp-disabled"),
		Endpoint:    cmd.String("otlp-endpoint"),
		Timeout:     time.Duration(cmd.Int64("otlp-timeout-ms")) * time.Millisecond,
		Compression: cmd.String("otlp-compression"),
	})
	if err != nil {
		return err
	}
	if provider != nil {
		defer func() {
			if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
				l.Warn("failed to shut down OpenTelemetry meter provider", slog.Any("error", err))
			}
		}()
	}

	addr := cmd.String("temporal-address")
	l.Info("Temporal server address", slog.String("address", addr))

	c, err := client.Dial(client.Options{
		HostPort:  addr,
		Namespace: cmd.String("temporal-namespace"),
		Logger:    log.NewStructuredLogger(l),
	})
	if err != nil {
		return fmt.Errorf("failed to dial Temporal: %w", err)
	}
	defer c.Close()

	gc, err := newGitHubClient(cmd)
	if err != nil {
		return err
	}

	acts, err := activities.New(gc, activities.Config{
		DataFilePatterns:     cmd.StringSlice("data-file-patterns"),
		MaxConcurrentFetches: cmd.Int("max-concurrent-fetches"),
		TeamsCacheTTL:        cmd.Duration("teams-cache-ttl"),
		ReviewsCSVFile:       cmd.String("reviews-csv-file"),
	})
	if err != nil {
		return fmt.Errorf("invalid data file patterns: %w", err)
	}
	defer acts.Close()

	tq := cmd.String("temporal-task-queue")
	w := worker.New(c, tq, worker.Options{})
	acts.Register(w)
	workflows.RegisterWorkflows(cmd, w)

	cfg := Config{taskQueue: tq}
	w.RegisterWorkflowWithOptions(cfg.EventDispatcherWorkflow, workflow.RegisterOptions{Name: EventDispatcher})

	if whAddr := cmd.String("webhook-address"); whAddr != "" {
		h, err := webhook.NewHandler(webhook.Config{
			Address:   whAddr,
			Path:      cmd.String("webhook-path"),
			Secret:    cmd.String("webhook-secret"),
			TaskQueue: tq,
		}, c)
		if err != nil {
			return fmt.Errorf("failed to initialize webhook listener: %w", err)
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		go func() {
			if err := h.ListenAndServe(ctx); err != nil {
				l.Error("webhook listener failed", slog.Any("error", err))
			}
		}()
	}

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("failed to start Temporal worker: %w", err)
	}

	return nil
}

// newGitHubClient initializes a GitHub API client which uses either
// a static token, or a token from a Thrippy link (which takes precedence).
func newGitHubClient(cmd *cli.Command) (*github.Client, error) {
	var tokens github.TokenSource = github.StaticToken(cmd.String("github-token"))

	if linkID := cmd.String("thrippy-link-id"); linkID != "" {
		tokens = github.NewThrippyTokenSource(github.ThrippyConfig{
			GRPCAddress:        cmd.String("thrippy-grpc-address"),
			ClientCert:         cmd.String("thrippy-client-cert"),
			ClientKey:          cmd.String("thrippy-client-key"),
			ServerCACert:       cmd.String("thrippy-server-ca-cert"),
			ServerNameOverride: cmd.String("thrippy-server-name-override"),
			Insecure:           cmd.Bool("dev"),
			LinkID:             linkID,
			TokenKey:           cmd.String("thrippy-token-key"),
		})
	} else if cmd.String("github-token") == "" && !cmd.Bool("dev") {
		return nil, errors.New("missing GitHub credentials: either --github-token or --thrippy-link-id is required")
	}

	return github.NewClient(cmd.String("github-api-url"), tokens, github.DefaultTimeout)
}
