// Package webhook implements an optional HTTP listener for GitHub webhook
// events, as a lightweight alternative to receiving them from Timpani.
// Pull request events are verified, filtered, and then handled by
// starting Temporal workflows directly.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gh "github.com/google/go-github/v71/github"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/github"
	"github.com/tzrikka/bcdreview/pkg/github/workflows"
)

const (
	DefaultPath = "/webhook"

	// https://docs.github.com/en/webhooks/webhook-events-and-payloads#payload-cap
	maxPayloadSize = 25 << 20

	shutdownTimeout = 5 * time.Second
)

var ErrMissingSecret = errors.New("missing GitHub webhook secret")

// Starter starts Temporal workflow executions. It is implemented by [client.Client].
type Starter interface {
	ExecuteWorkflow(ctx context.Context, opts client.StartWorkflowOptions, workflow any, args ...any) (client.WorkflowRun, error)
}

type Config struct {
	Address   string
	Path      string
	Secret    string
	TaskQueue string
}

type Handler struct {
	cfg      Config
	temporal Starter
}

// NewHandler requires a webhook secret: without one, event
// signatures are not verified, so anyone could trigger workflows.
func NewHandler(cfg Config, s Starter) (*Handler, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	return &Handler{cfg: cfg, temporal: s}, nil
}

// Router returns the HTTP routes of the webhook listener.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Post(h.cfg.Path, h.handleEvent)

	return r
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.FromContext(ctx).With(slog.String("request_id", middleware.GetReqID(ctx)))

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)
	payload, err := gh.ValidatePayload(r, []byte(h.cfg.Secret))
	if err != nil {
		l.Warn("rejected GitHub webhook event", slog.Any("error", err))
		http.Error(w, "invalid payload or signature", http.StatusForbidden)
		return
	}

	delivery := gh.DeliveryID(r)
	if delivery == "" {
		delivery = uuid.NewString()
	}
	eventType := gh.WebHookType(r)
	l = l.With(slog.String("event", eventType), slog.String("delivery", delivery))

	switch eventType {
	case "ping":
		l.Info("received GitHub webhook ping")
		w.WriteHeader(http.StatusOK)
		return
	case "pull_request":
	default:
		l.Debug("ignoring GitHub webhook event")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	event := github.PullRequestEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		l.Warn("failed to parse GitHub pull request event", slog.Any("error", err))
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if !workflows.Reviewable(event.Action) {
		l.Debug("ignoring GitHub pull request event", slog.String("action", event.Action))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pr := event.PullRequestRef()
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(pr, delivery),
		TaskQueue: h.cfg.TaskQueue,
	}
	run, err := h.temporal.ExecuteWorkflow(ctx, opts, workflows.Signals[0], event)
	if err != nil {
		l.Error("failed to start Temporal workflow", append(logger.PullRequest(pr.Owner, pr.Repo, pr.Number),
			slog.Any("error", err))...)
		http.Error(w, "failed to handle event", http.StatusInternalServerError)
		return
	}

	attrs := append(logger.PullRequest(pr.Owner, pr.Repo, pr.Number), slog.String("action", event.Action),
		slog.String("workflow_id", opts.ID))
	if run != nil {
		attrs = append(attrs, slog.String("run_id", run.GetRunID()))
	}
	l.Info("started Temporal workflow for GitHub pull request event", attrs...)
	w.WriteHeader(http.StatusAccepted)
}

// WorkflowID is unique per webhook delivery, so redeliveries
// of the same event don't trigger duplicate executions.
func WorkflowID(pr github.PullRequestRef, delivery string) string {
	return fmt.Sprintf("pr-%s-%s-%d-%s", pr.Owner, pr.Repo, pr.Number, delivery)
}

// ListenAndServe runs the webhook listener until the context is canceled.
func (h *Handler) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.cfg.Address,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errc := make(chan error, 1)
	go func() {
		logger.FromContext(ctx).Info("webhook listener started", slog.String("address", h.cfg.Address),
			slog.String("path", h.cfg.Path))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
