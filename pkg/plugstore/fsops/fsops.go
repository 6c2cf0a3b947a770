// Package fsops implements crash-safe directory replacement for the
// plugin store: atomic rename with a copy+delete fallback, recursive
// deletion with contention retry, and a composed publish protocol that
// swaps a freshly built directory tree into place.
//
// Readers of a published path always observe either the complete old
// generation or the complete new generation, never a mix.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// Replacer performs filesystem tree operations with a configurable
// retry policy for transient lock contention.
//
// Replacer assumes single-writer access to the paths it mutates: callers
// must not run concurrent operations against the same target.
type Replacer struct {
	policy  RetryPolicy
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	keepOld bool

	// rename is swappable in tests to force the fallback path.
	rename func(src, dest string) error
}

// Option configures a Replacer.
type Option func(*Replacer)

// WithRetryPolicy sets the retry policy for filesystem mutations.
// Default: DefaultRetryPolicy().
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Replacer) {
		r.policy = p
	}
}

// WithLogger sets the structured logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Replacer) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Replacer) {
		r.metrics = m
	}
}

// WithTracing sets the span manager. Default: no-op.
func WithTracing(sm observability.SpanManager) Option {
	return func(r *Replacer) {
		r.spans = sm
	}
}

// WithKeepOldUntilReady makes Publish rename the old generation aside,
// install the new one, and only then delete the old generation. This
// closes the window in which the target does not exist, at the cost of
// an extra rename. Default: off, matching the documented protocol.
func WithKeepOldUntilReady() Option {
	return func(r *Replacer) {
		r.keepOld = true
	}
}

// New creates a Replacer with the given options.
func New(opts ...Option) *Replacer {
	r := &Replacer{
		policy:  DefaultRetryPolicy(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		rename:  os.Rename,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplaceError is an unrecoverable filesystem failure. It carries the
// operation, the paths involved, and the underlying cause.
type ReplaceError struct {
	// Op is the operation that failed ("move", "copy", "delete", "mkdir").
	Op string
	// Src is the source path, or the single path for delete/mkdir.
	Src string
	// Dest is the destination path, empty for single-path operations.
	Dest string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ReplaceError) Error() string {
	if e.Dest != "" {
		return fmt.Sprintf("%s %s to %s: %v", e.Op, e.Src, e.Dest, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Src, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ReplaceError) Unwrap() error {
	return e.Err
}

// renameUnsupported reports whether a rename failed because the
// filesystem cannot perform it atomically across the src/dest boundary
// (different volumes). Such failures trigger the copy+delete fallback
// instead of surfacing to the caller.
func renameUnsupported(err error) bool {
	return errors.Is(err, syscall.EXDEV) || errors.Is(err, errors.ErrUnsupported)
}

// MoveTree relocates the subtree at src to dest. It attempts a single
// atomic rename first and falls back to a recursive copy followed by
// deletion of src when the rename crosses an incompatible boundary.
//
// On success dest contains exactly src's prior content and src no
// longer exists.
func (r *Replacer) MoveTree(ctx context.Context, src, dest string) error {
	err := r.retry(ctx, "rename", src, func() error {
		return r.rename(src, dest)
	})
	if err == nil {
		return nil
	}
	if !renameUnsupported(err) {
		return &ReplaceError{Op: "move", Src: src, Dest: dest, Err: err}
	}

	observability.LogCopyFallback(r.logger, src, dest)
	if err := copyTree(src, dest); err != nil {
		return &ReplaceError{Op: "copy", Src: src, Dest: dest, Err: err}
	}
	return r.DeleteTree(ctx, src)
}

// copyTree recursively copies every file and directory under src to
// dest, creating directories that do not yet exist and skipping ones
// that do, preserving relative structure and file modes.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			if mkErr := os.Mkdir(target, 0o755); mkErr != nil && !errors.Is(mkErr, fs.ErrExist) {
				return mkErr
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

// copyFile copies a single regular file.
func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DeleteTree recursively deletes the file or directory tree at path,
// depth-first, retrying individual removals on contention. Returns nil
// if path does not exist.
func (r *Replacer) DeleteTree(ctx context.Context, path string) error {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := r.deleteRecursive(ctx, path); err != nil {
		return &ReplaceError{Op: "delete", Src: path, Err: err}
	}
	return nil
}

// deleteRecursive removes children bottom-up, then the entry itself.
func (r *Replacer) deleteRecursive(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := r.deleteRecursive(ctx, filepath.Join(path, entry.Name())); err != nil {
				return err
			}
		}
	}

	return r.retry(ctx, "remove", path, func() error {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	})
}

// EnsureDirExists creates path and all missing ancestor directories.
// Succeeds silently if path is already present.
func (r *Replacer) EnsureDirExists(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &ReplaceError{Op: "mkdir", Src: path, Err: err}
	}
	return nil
}
