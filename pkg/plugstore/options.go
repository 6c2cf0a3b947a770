package plugstore

import (
	"log/slog"

	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the structured logger for lifecycle events.
// Default: no logging.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) RepositoryOption {
	return func(r *Repository) {
		r.metrics = m
	}
}

// WithTracing sets the span manager. Default: no-op.
func WithTracing(sm observability.SpanManager) RepositoryOption {
	return func(r *Repository) {
		r.spans = sm
	}
}
