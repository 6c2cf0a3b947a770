package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	ctx := context.Background()
	m := NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordPublish(ctx, true, time.Second)
		m.RecordPublish(ctx, false, 0)
		m.RecordRetry(ctx, "remove")
		m.RecordStart(ctx, 3, time.Millisecond)
		m.RecordCacheLookup(ctx, true)
	})
}

func TestNoopSpanManager(t *testing.T) {
	ctx := context.Background()
	sm := NoopSpanManager{}

	assert.NotPanics(t, func() {
		spanCtx, span := sm.StartLifecycleSpan(ctx, "start")
		assert.Equal(t, ctx, spanCtx)

		spanCtx, pubSpan := sm.StartPublishSpan(ctx, "/p")
		assert.Equal(t, ctx, spanCtx)

		sm.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
		sm.EndSpanWithError(span, nil)
		sm.EndSpanWithError(pubSpan, errors.New("ignored"))
	})
}
