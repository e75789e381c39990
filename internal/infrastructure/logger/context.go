package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	callerIDKey  contextKey = "caller_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID and attaches it to the context logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, logger.With(zap.String("request_id", requestID)))
}

// WithCallerID stores the authenticated caller's ID and attaches it to the context logger
func WithCallerID(ctx context.Context, callerID string) context.Context {
	ctx = context.WithValue(ctx, callerIDKey, callerID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("caller_id", callerID)))
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetCallerID retrieves the caller ID from context
func GetCallerID(ctx context.Context) string {
	if callerID, ok := ctx.Value(callerIDKey).(string); ok {
		return callerID
	}
	return ""
}

// GetTraceID extracts the trace ID of the active span, or ""
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// For returns base enriched with the request, caller and trace IDs found in ctx.
// A logger already stored in ctx takes precedence over base.
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		l = base
		if l == nil {
			l = zap.NewNop()
		}
		if requestID := GetRequestID(ctx); requestID != "" {
			l = l.With(zap.String("request_id", requestID))
		}
		if callerID := GetCallerID(ctx); callerID != "" {
			l = l.With(zap.String("caller_id", callerID))
		}
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return l
}
