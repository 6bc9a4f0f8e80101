package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey keeps the package's context values private to it
type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// WithContext attaches the logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger carried by the context, or a no-op
// logger when none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stamps the request ID onto the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID carried by the context, if any
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID stamps the authenticated user's ID onto the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user ID carried by the context, if any
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// GetTraceID returns the active trace ID, or an empty string when the
// context carries no recording span.
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span ID, or an empty string when the
// context carries no recording span.
func GetSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

// WithTraceContext returns the logger with trace_id and span_id fields
// when the context carries a valid span, unchanged otherwise.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ContextLogger decorates every entry with the request identity carried
// in the context: trace and span IDs, request ID and user ID. Decoration
// happens at write time, so values added to the context after L are
// still picked up.
type ContextLogger struct {
	ctx  context.Context
	base *zap.Logger
}

// L returns a ContextLogger backed by the context's logger.
// Usage: logger.L(ctx).Info("order shipped", zap.String("order_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, base: FromContext(ctx)}
}

// WithLogger swaps the underlying logger, keeping the context decoration
func (cl *ContextLogger) WithLogger(logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, base: logger}
}

// With returns a child ContextLogger carrying the extra fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, base: cl.base.With(fields...)}
}

func (cl *ContextLogger) decorated() *zap.Logger {
	l := cl.base
	if l == nil {
		l = zap.NewNop()
	}

	l = WithTraceContext(cl.ctx, l)
	if requestID := GetRequestID(cl.ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if userID := GetUserID(cl.ctx); userID != "" {
		l = l.With(zap.String("user_id", userID))
	}
	return l
}

// Debug logs at debug level with context decoration
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.decorated().Debug(msg, fields...)
}

// Info logs at info level with context decoration
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.decorated().Info(msg, fields...)
}

// Warn logs at warn level with context decoration
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.decorated().Warn(msg, fields...)
}

// Error logs at error level with context decoration
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.decorated().Error(msg, fields...)
}

// Zap returns the decorated zap logger for APIs that want one directly
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.decorated()
}

// Sugar returns the decorated logger's sugared form
func (cl *ContextLogger) Sugar() *zap.SugaredLogger {
	return cl.decorated().Sugar()
}
