package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestCtxZapLogger_TraceIDFromContextKey(t *testing.T) {
	log, logs := NewTestLogger("bucket")
	ctx := context.WithValue(context.Background(), "trace_id", "trace-123")

	log.InfoCtx(ctx, "bucket created", zap.String("bucket_id", "A"))

	entries := logs.FilterMessage("bucket created").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-123", fields["trace_id"])
	assert.Equal(t, "A", fields["bucket_id"])
	assert.Equal(t, "bucket", fields["module"])
}

func TestCtxZapLogger_TraceIDFromSpan(t *testing.T) {
	log, logs := NewTestLogger("flowqueue")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.WarnCtx(ctx, "await timeout")

	entries := logs.FilterMessage("await timeout").All()
	require.Len(t, entries, 1)
	assert.Equal(t, traceID.String(), entries[0].ContextMap()["trace_id"])
}

func TestCtxZapLogger_Levels(t *testing.T) {
	log, logs := NewTestLogger("admission")
	ctx := context.Background()

	log.DebugCtx(ctx, "d")
	log.InfoCtx(ctx, "i")
	log.WarnCtx(ctx, "w")
	log.ErrorCtx(ctx, "e", zap.Error(errors.New("boom")))

	assert.Equal(t, 4, logs.Len())
	assert.Equal(t, 1, logs.FilterFieldKey("error").Len())
}

func TestCtxZapLogger_With(t *testing.T) {
	log, logs := NewTestLogger("gateway")

	log.With(zap.String("provider", "huobi")).InfoCtx(context.Background(), "call admitted")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "huobi", entries[0].ContextMap()["provider"])
	assert.Equal(t, "gateway", log.Module())
}

func TestNewNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.ErrorCtx(context.Background(), "ignored")
	})
}

func TestCaptureStacktrace(t *testing.T) {
	stack := CaptureStacktrace(1, 2)
	assert.Contains(t, stack, "TestCaptureStacktrace")

	assert.True(t, shouldCaptureStacktrace("error", DefaultManagerConfig()))
	assert.False(t, shouldCaptureStacktrace("warn", DefaultManagerConfig()))
}
