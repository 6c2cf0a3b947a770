// Package cache provides a content-addressed cache of plugin artifacts
// on local disk. Artifacts are stored under <dir>/<hash>/<filename> and
// installed with the crash-safe move protocol from fsops, so a partially
// downloaded artifact is never visible at its final path.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/randalmurphal/plugstore/pkg/plugstore/fsops"
	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// workSubdir holds in-progress downloads below the cache root.
const workSubdir = "_work"

// Downloader materializes an artifact at the given destination path.
// The hash is treated as opaque identity; content validation is the
// caller's concern.
type Downloader func(dest string) error

// Cache is a content-addressed artifact cache rooted at a directory.
//
// Cache assumes single-writer access: concurrent Get calls for the same
// hash must be prevented by the caller.
type Cache struct {
	dir      string
	replacer *fsops.Replacer
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// Option configures a Cache.
type Option func(*Cache)

// WithReplacer sets the Replacer used for filesystem operations.
// Default: fsops.New().
func WithReplacer(r *fsops.Replacer) Option {
	return func(c *Cache) {
		c.replacer = r
	}
}

// WithLogger sets the structured logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:      dir,
		replacer: fsops.New(),
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.replacer.EnsureDirExists(dir); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the final location of an artifact, whether or not it is
// currently cached.
func (c *Cache) Path(filename, hash string) string {
	return filepath.Join(c.dir, hash, filename)
}

// Has reports whether the artifact is already cached.
func (c *Cache) Has(filename, hash string) bool {
	_, err := os.Stat(c.Path(filename, hash))
	return err == nil
}

// Get returns the cached path for the artifact, downloading it first if
// it is not yet present. The download lands in a private work directory
// and is moved into place in one step, so readers never see a partial
// artifact.
func (c *Cache) Get(ctx context.Context, filename, hash string, download Downloader) (string, error) {
	cached := c.Path(filename, hash)
	if _, err := os.Stat(cached); err == nil {
		observability.LogCacheHit(c.logger, filename, hash, true)
		c.metrics.RecordCacheLookup(ctx, true)
		return cached, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat cached artifact %s: %w", cached, err)
	}

	observability.LogCacheHit(c.logger, filename, hash, false)
	c.metrics.RecordCacheLookup(ctx, false)

	work := filepath.Join(c.dir, workSubdir, uuid.NewString())
	if err := c.replacer.EnsureDirExists(work); err != nil {
		return "", err
	}
	defer c.replacer.DeleteTree(ctx, work)

	if err := download(filepath.Join(work, filename)); err != nil {
		return "", fmt.Errorf("download %s: %w", filename, err)
	}

	if err := c.replacer.MoveTree(ctx, work, filepath.Join(c.dir, hash)); err != nil {
		return "", err
	}
	return cached, nil
}

// Evict removes a cached artifact generation by hash.
// Returns nil if nothing is cached under the hash.
func (c *Cache) Evict(ctx context.Context, hash string) error {
	return c.replacer.DeleteTree(ctx, filepath.Join(c.dir, hash))
}
