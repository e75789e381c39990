package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a recording tracer provider for the test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := gin.New()
	router.Use(Tracing("printmarket", false))
	router.GET("/x", func(c *gin.Context) {
		assert.False(t, trace.SpanFromContext(c.Request.Context()).SpanContext().IsValid())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanCarriesRequestAndCaller(t *testing.T) {
	sr := setupTestTracer(t)
	userID := uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing("printmarket", true), SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, userID)
		c.Next()
	}, SpanAttributes())
	router.POST("/orders/:id/invoice", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/1/invoice", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	a := attrs(span)
	assert.Equal(t, "req-42", a["request.id"].AsString())
	assert.Equal(t, userID.String(), a["user.id"].AsString())
	assert.Equal(t, int64(http.StatusBadGateway), a["http.status_code"].AsInt64())
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestSpanErrorMarker_ClientErrorIsNotFailure(t *testing.T) {
	sr := setupTestTracer(t)
	router := gin.New()
	router.Use(Tracing("printmarket", true), SpanErrorMarker())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(http.StatusNotFound), attrs(spans[0])["http.status_code"].AsInt64())
}
