package fsops

import (
	"context"
	"errors"
	"io/fs"
	"runtime"
	"time"

	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// RetryPolicy controls how individual filesystem mutations (delete, rename)
// are retried when they fail with transient lock contention.
//
// On operating systems where external processes (virus scanners, search
// indexers) briefly hold handles on newly created files, a bounded number
// of retries with a short pause lets the handle be released. On other
// systems the operation is attempted once more after the loop with its
// error surfaced unmasked.
type RetryPolicy struct {
	// MaxRetries is the number of retried attempts before the final one.
	// Zero means a single additional attempt with no pause.
	MaxRetries int

	// Interval is the pause between attempts.
	Interval time.Duration

	// Retryable optionally overrides the default contention check.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the retry policy for the current operating
// system. Windows is the only platform known to exhibit transient
// file-handle contention from external processes.
func DefaultRetryPolicy() RetryPolicy {
	maxRetries := 0
	if runtime.GOOS == "windows" {
		maxRetries = 20
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		Interval:   100 * time.Millisecond,
	}
}

// IsContention reports whether err belongs to the transient
// lock-contention class (access denied during delete or rename).
// Structural errors such as a missing file are not contention.
func IsContention(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

// retryable applies the policy's override if set, else the default check.
func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsContention(err)
}

// retry runs fn up to MaxRetries times, pausing between attempts on
// contention errors, then gives it one last chance with the error
// propagated unmasked. Non-contention errors propagate immediately.
//
// The context is used for telemetry only. An in-flight filesystem
// mutation runs to completion or to an unrecoverable error; the pause is
// a plain sleep, not a cancellation point.
func (r *Replacer) retry(ctx context.Context, op, path string, fn func() error) error {
	for attempt := 0; attempt < r.policy.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !r.policy.retryable(err) {
			return err
		}
		observability.LogRetry(r.logger, op, path, attempt+1, err)
		r.metrics.RecordRetry(ctx, op)
		time.Sleep(r.policy.Interval)
	}

	// Last attempt, never swallowed.
	return fn()
}
