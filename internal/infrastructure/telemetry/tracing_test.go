package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartSpan(context.Background(), "reconciliation.handle_webhook")
	require.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span, trace.SpanFromContext(ctx))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "reconciliation.handle_webhook", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)
	orderID := uuid.New()

	_, span := telemetry.StartSpan(context.Background(), "xendit.create_invoice",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("order_id", orderID),
		telemetry.WithAttribute("amount", decimal.RequireFromString("1500.50")),
		telemetry.WithAttribute("attempt", 2),
		telemetry.WithAttribute("async", true),
	)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, trace.SpanKindClient, ended[0].SpanKind())

	attrs := attrMap(ended[0])
	assert.Equal(t, orderID.String(), attrs["order_id"].AsString())
	assert.Equal(t, "1500.5", attrs["amount"].AsString())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.True(t, attrs["async"].AsBool())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "PricingService", "AgreeToPricing")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, "PricingService.AgreeToPricing", sr.Ended()[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.SetAttributes(span,
		"signal", "invoice.paid",
		"items", []string{"a", "b"},
		42, "ignored non-string key",
		"dangling",
	)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, "invoice.paid", attrs["signal"].AsString())
	assert.Equal(t, []string{"a", "b"}, attrs["items"].AsStringSlice())
	assert.Len(t, attrs, 2)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.RecordError(failed, errors.New("gateway unavailable"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "gateway unavailable", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)

	assert.Equal(t, codes.Ok, ended[1].Status().Code)
	assert.Empty(t, ended[1].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.AddEvent(span, "milestone_paid", "milestone_id", "m-1", "index", 0)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "milestone_paid", events[0].Name)
	assert.Len(t, events[0].Attributes, 2)
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, parent := telemetry.StartSpan(context.Background(), "parent")
	defer parent.End()
	childCtx, child := telemetry.StartSpan(ctx, "child")
	defer child.End()

	assert.Len(t, telemetry.GetTraceID(ctx), 32)
	assert.Equal(t, telemetry.GetTraceID(ctx), telemetry.GetTraceID(childCtx))
	assert.Len(t, telemetry.GetSpanID(childCtx), 16)
	assert.NotEqual(t, telemetry.GetSpanID(ctx), telemetry.GetSpanID(childCtx))
}
