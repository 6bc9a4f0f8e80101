package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestWithContext(t *testing.T) {
	logger, _ := newObservedLogger()
	ctx := WithContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got)
}

func TestFromContext_NoLogger(t *testing.T) {
	got := FromContext(context.Background())
	require.NotNil(t, got)
	// No-op logger must be safe to use
	got.Info("should not panic")
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-456")
	assert.Equal(t, "user-456", GetUserID(ctx))
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetUserID_Empty(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestGetSpanID_NoSpan(t *testing.T) {
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestWithTraceContext_NoSpan(t *testing.T) {
	logger, logs := newObservedLogger()
	enriched := WithTraceContext(context.Background(), logger)
	require.NotNil(t, enriched)

	enriched.Info("message")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.NotContains(t, fieldMap(entry), "trace_id")
	assert.NotContains(t, fieldMap(entry), "span_id")
}

func TestContextLogger_EnrichesFields(t *testing.T) {
	logger, logs := newObservedLogger()

	ctx := WithContext(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-abc")
	ctx = WithUserID(ctx, "user-def")

	L(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	fields := fieldMap(entry)
	assert.Equal(t, "req-abc", fields["request_id"])
	assert.Equal(t, "user-def", fields["user_id"])
}

func TestContextLogger_Levels(t *testing.T) {
	logger, logs := newObservedLogger()
	ctx := WithContext(context.Background(), logger)

	L(ctx).Debug("debug msg")
	L(ctx).Info("info msg")
	L(ctx).Warn("warn msg")
	L(ctx).Error("error msg")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestContextLogger_With(t *testing.T) {
	logger, logs := newObservedLogger()
	ctx := WithContext(context.Background(), logger)

	L(ctx).With(zap.String("order_id", "ord-1")).Info("created")

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "ord-1", fields["order_id"])
}

func TestContextLogger_WithLogger(t *testing.T) {
	first, firstLogs := newObservedLogger()
	second, secondLogs := newObservedLogger()

	ctx := WithContext(context.Background(), first)
	L(ctx).WithLogger(second).Info("routed")

	assert.Equal(t, 0, firstLogs.Len())
	require.Equal(t, 1, secondLogs.Len())
	assert.Equal(t, "routed", secondLogs.All()[0].Message)
}

func TestContextLogger_ExtraFields(t *testing.T) {
	logger, logs := newObservedLogger()
	ctx := WithContext(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")

	L(ctx).Info("with extras", zap.Int("count", 3))

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, int64(3), fields["count"])
}

func TestContextLogger_Zap(t *testing.T) {
	logger, _ := newObservedLogger()
	ctx := WithContext(context.Background(), logger)

	require.NotNil(t, L(ctx).Zap())
	require.NotNil(t, L(ctx).Sugar())
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	out := make(map[string]any, len(entry.Context))
	for _, f := range entry.Context {
		switch f.Type {
		case zapcore.StringType:
			out[f.Key] = f.String
		case zapcore.Int64Type:
			out[f.Key] = f.Integer
		default:
			out[f.Key] = f.Interface
		}
	}
	return out
}
