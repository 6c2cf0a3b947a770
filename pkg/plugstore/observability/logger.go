// Package observability provides structured logging, metrics, and tracing
// for plugstore operations.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogRepositoryStart logs the completion of the repository start phase.
func LogRepositoryStart(logger *slog.Logger, pluginCount int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("plugin repository started",
		slog.Int("plugins", pluginCount),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPluginLoaded logs a single loaded plugin at debug level.
func LogPluginLoaded(logger *slog.Logger, key, name, version string) {
	if logger == nil {
		return
	}
	logger.Debug("plugin loaded",
		slog.String("key", key),
		slog.String("name", name),
		slog.String("version", version),
	)
}

// LogRepositoryStop logs repository shutdown.
func LogRepositoryStop(logger *slog.Logger, pluginCount int) {
	if logger == nil {
		return
	}
	logger.Info("plugin repository stopped",
		slog.Int("plugins_unloaded", pluginCount),
	)
}

// LogPublishStart logs the start of a directory publish.
func LogPublishStart(logger *slog.Logger, target string) {
	if logger == nil {
		return
	}
	logger.Debug("publishing directory",
		slog.String("target", target),
	)
}

// LogPublishComplete logs successful directory publish.
func LogPublishComplete(logger *slog.Logger, target string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("directory published",
		slog.String("target", target),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPublishError logs a failed directory publish.
func LogPublishError(logger *slog.Logger, target string, err error) {
	if logger == nil {
		return
	}
	logger.Error("directory publish failed",
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// LogRetry logs a retried filesystem operation.
// Contention from external processes (virus scanners, indexers) is the
// usual cause, so this stays at warn rather than error.
func LogRetry(logger *slog.Logger, op, path string, attempt int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("filesystem operation retried",
		slog.String("op", op),
		slog.String("path", path),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
}

// LogCopyFallback logs that an atomic rename was not possible and the
// copy+delete fallback is being used.
func LogCopyFallback(logger *slog.Logger, src, dest string) {
	if logger == nil {
		return
	}
	logger.Debug("atomic rename unsupported, copying",
		slog.String("src", src),
		slog.String("dest", dest),
	)
}

// LogCacheHit logs a cache lookup result.
func LogCacheHit(logger *slog.Logger, filename, hash string, hit bool) {
	if logger == nil {
		return
	}
	logger.Debug("artifact cache lookup",
		slog.String("filename", filename),
		slog.String("hash", hash),
		slog.Bool("hit", hit),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
