package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordWebhook(t *testing.T) {
	m := NewMetrics()

	m.RecordWebhook("invoice_paid", ResultApplied)
	m.RecordWebhook("invoice_paid", ResultApplied)
	m.RecordWebhook("invoice_paid", ResultDuplicate)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("invoice_paid", ResultApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("invoice_paid", ResultDuplicate)))
}

func TestMetrics_RecordGatewayRequest(t *testing.T) {
	m := NewMetrics()

	m.RecordGatewayRequest("create_invoice", nil)
	m.RecordGatewayRequest("create_invoice", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("create_invoice", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("create_invoice", "error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordWebhook("invoice_paid", ResultApplied)
		m.RecordWebhookRejected("signature")
		m.RecordLockRetry("order")
		m.RecordStockDecrement("ok")
		m.RecordSideEffectFailure("email")
		m.RecordGatewayRequest("create_invoice", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordStockDecrement("insufficient_stock")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_stock_decrements_total{result="insufficient_stock"} 1`)
}
