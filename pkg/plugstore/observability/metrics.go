package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records plugstore metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records a directory publish with its duration and outcome.
	RecordPublish(ctx context.Context, success bool, duration time.Duration)

	// RecordRetry records a retried filesystem operation.
	RecordRetry(ctx context.Context, op string)

	// RecordStart records a repository start with the number of plugins loaded.
	RecordStart(ctx context.Context, pluginCount int, duration time.Duration)

	// RecordCacheLookup records an artifact cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	publishes      metric.Int64Counter
	publishLatency metric.Float64Histogram
	fsRetries      metric.Int64Counter
	startLatency   metric.Float64Histogram
	pluginsLoaded  metric.Int64Counter
	cacheLookups   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("plugstore")

	publishes, err := meter.Int64Counter("plugstore.publish.count",
		metric.WithDescription("Number of directory publishes"),
	)
	if err != nil {
		return nil, err
	}

	publishLatency, err := meter.Float64Histogram("plugstore.publish.latency_ms",
		metric.WithDescription("Directory publish latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	fsRetries, err := meter.Int64Counter("plugstore.fs.retries",
		metric.WithDescription("Number of retried filesystem operations"),
	)
	if err != nil {
		return nil, err
	}

	startLatency, err := meter.Float64Histogram("plugstore.repository.start_latency_ms",
		metric.WithDescription("Repository start latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	pluginsLoaded, err := meter.Int64Counter("plugstore.plugins.loaded",
		metric.WithDescription("Number of plugins loaded at start"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter("plugstore.cache.lookups",
		metric.WithDescription("Number of artifact cache lookups"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		publishes:      publishes,
		publishLatency: publishLatency,
		fsRetries:      fsRetries,
		startLatency:   startLatency,
		pluginsLoaded:  pluginsLoaded,
		cacheLookups:   cacheLookups,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordPublish records a directory publish.
func (m *otelMetrics) RecordPublish(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.publishes.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.publishLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRetry records a retried filesystem operation.
func (m *otelMetrics) RecordRetry(ctx context.Context, op string) {
	m.fsRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
	))
}

// RecordStart records a repository start.
func (m *otelMetrics) RecordStart(ctx context.Context, pluginCount int, duration time.Duration) {
	m.startLatency.Record(ctx, float64(duration.Milliseconds()))
	m.pluginsLoaded.Add(ctx, int64(pluginCount))
}

// RecordCacheLookup records an artifact cache lookup.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("hit", hit),
	))
}
