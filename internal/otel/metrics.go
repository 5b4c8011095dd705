// Package otel provides lightweight wrapper functions to record OpenTelemetry
// metrics, both in Temporal workflows and in regular Go code (e.g. activities).
package otel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/bcdreview/internal/logger"
)

const name = "github.com/tzrikka/bcdreview/internal/otel"

var activityOpts = workflow.LocalActivityOptions{
	ScheduleToCloseTimeout: time.Second,
}

// Config controls the OTLP metrics exporter.
type Config struct {
	Disabled    bool
	Endpoint    string
	Timeout     time.Duration
	Compression string
}

type activityRequest struct {
	Name  string
	Inc   int64
	Attrs map[string]string
}

// InitMetrics sets the global OpenTelemetry meter provider, which exports metrics
// periodically over OTLP/HTTP. If exporting is disabled, it returns nil, and
// metrics are recorded by OpenTelemetry's default no-op provider.
func InitMetrics(ctx context.Context, cfg Config) (*metric.MeterProvider, error) {
	if cfg.Disabled {
		return nil, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(cfg.Endpoint)}
	if cfg.Timeout > 0 {
		opts = append(opts, otlpmetrichttp.WithTimeout(cfg.Timeout))
	}
	switch strings.ToLower(cfg.Compression) {
	case "", "none":
	case "gzip":
		opts = append(opts, otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression))
	default:
		return nil, fmt.Errorf("unsupported OTLP compression method: %q", cfg.Compression)
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTLP metrics exporter: %w", err)
	}

	reader := metric.NewPeriodicReader(exporter)
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("bcdreview"))
	provider := metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res))

	otel.SetMeterProvider(provider)
	return provider, nil
}

// IncrementCounter increments a metric counter in a Temporal workflow,
// using a local activity to avoid non-deterministic side effects.
// Attributes are optional.
func IncrementCounter(ctx workflow.Context, name string, incr int64, attrs map[string]string) {
	req := activityRequest{Name: name, Inc: incr, Attrs: attrs}
	ctx = workflow.WithLocalActivityOptions(ctx, activityOpts)
	if err := workflow.ExecuteLocalActivity(ctx, incrementCounterActivity, req).Get(ctx, nil); err != nil {
		logger.From(ctx).Error("failed to increment metric counter", slog.Any("error", err),
			slog.String("name", name), slog.Any("attrs", attrs))
	}
}

func incrementCounterActivity(ctx context.Context, req activityRequest) error {
	return Add(ctx, req.Name, req.Inc, req.Attrs)
}

// Add increments a metric counter outside of Temporal workflows. Attributes are optional.
func Add(ctx context.Context, counterName string, incr int64, attrs map[string]string) error {
	meter := otel.GetMeterProvider().Meter(name)
	counter, err := meter.Int64Counter(counterName)
	if err != nil {
		return err
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		if v == "" {
			continue
		}
		kvs = append(kvs, attribute.String(k, v))
	}

	counter.Add(ctx, incr, otelmetric.WithAttributes(kvs...))
	return nil
}

// SignalReceived increments a metric that a Temporal signal was
// received from Timpani, triggered by an incoming webhook event.
func SignalReceived(ctx workflow.Context, name string, draining bool) {
	msg := "received signal"
	if draining {
		msg += " while draining"
	}
	logger.From(ctx).Info(msg, slog.String("signal_name", name))
	IncrementCounter(ctx, "signal.received", 1, map[string]string{"signal_name": name})
}
