package fsops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// Builder populates a work directory with the next generation of stored
// content. It must fill the directory synchronously and fully before
// returning; any failure must be signaled by returning an error, not by
// partial population.
type Builder func(workDir string) error

// Publish runs the safe-update protocol: build new content in work,
// delete the old generation at target, ensure target's parent exists,
// then move work into place. A builder failure aborts before target is
// touched.
//
// Between the delete and the move there is a window in which target does
// not exist. Callers that read target directly during publish should
// construct the Replacer with WithKeepOldUntilReady to close the window.
func (r *Replacer) Publish(ctx context.Context, build Builder, target, work string) (err error) {
	ctx, span := r.spans.StartPublishSpan(ctx, target)
	start := time.Now()
	observability.LogPublishStart(r.logger, target)
	defer func() {
		r.spans.EndSpanWithError(span, err)
		r.metrics.RecordPublish(ctx, err == nil, time.Since(start))
		if err != nil {
			observability.LogPublishError(r.logger, target, err)
		} else {
			observability.LogPublishComplete(r.logger, target, float64(time.Since(start).Milliseconds()))
		}
	}()

	if err := build(work); err != nil {
		return fmt.Errorf("build content in %s: %w", work, err)
	}

	if r.keepOld {
		return r.publishKeepingOld(ctx, target, work)
	}

	if err := r.DeleteTree(ctx, target); err != nil {
		return err
	}
	if err := r.EnsureDirExists(filepath.Dir(target)); err != nil {
		return err
	}
	return r.MoveTree(ctx, work, target)
}

// publishKeepingOld renames the old generation aside before installing
// the new one, so target is never absent, then deletes the old
// generation.
func (r *Replacer) publishKeepingOld(ctx context.Context, target, work string) error {
	if err := r.EnsureDirExists(filepath.Dir(target)); err != nil {
		return err
	}

	aside := ""
	if _, err := os.Lstat(target); err == nil {
		aside = fmt.Sprintf("%s.old-%s", target, uuid.NewString()[:8])
		if err := r.MoveTree(ctx, target, aside); err != nil {
			return err
		}
	}

	if err := r.MoveTree(ctx, work, target); err != nil {
		return err
	}

	if aside != "" {
		return r.DeleteTree(ctx, aside)
	}
	return nil
}
