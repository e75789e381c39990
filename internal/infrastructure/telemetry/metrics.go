package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook results recorded per signal
const (
	ResultApplied      = "applied"
	ResultDuplicate    = "duplicate"
	ResultIgnored      = "ignored"
	ResultDiscrepancy  = "discrepancy"
	ResultUnresolved   = "unresolved"
	ResultNotFound     = "not_found"
	ResultInsufficient = "insufficient"
	ResultError        = "error"
)

// Metrics holds the Prometheus collectors of the service. Each instance owns
// its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WebhookEventsTotal      *prometheus.CounterVec
	WebhookRejectedTotal    *prometheus.CounterVec
	LockRetriesTotal        *prometheus.CounterVec
	StockDecrementsTotal    *prometheus.CounterVec
	SideEffectFailuresTotal *prometheus.CounterVec
	GatewayRequestsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers every collector
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_webhook_events_total",
				Help: "Webhook events per normalized signal and reconciliation result",
			},
			[]string{"signal", "result"},
		),
		WebhookRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_webhook_rejected_total",
				Help: "Webhook deliveries rejected before reconciliation",
			},
			[]string{"reason"},
		),
		LockRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_lock_retries_total",
				Help: "Optimistic lock conflicts that caused a reload",
			},
			[]string{"aggregate"},
		),
		StockDecrementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_stock_decrements_total",
				Help: "Stock decrements attempted after an order was paid",
			},
			[]string{"result"},
		),
		SideEffectFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_side_effect_failures_total",
				Help: "Failed best-effort side effects per handler",
			},
			[]string{"handler"},
		),
		GatewayRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_requests_total",
				Help: "Outbound payment gateway calls",
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WebhookEventsTotal,
		m.WebhookRejectedTotal,
		m.LockRetriesTotal,
		m.StockDecrementsTotal,
		m.SideEffectFailuresTotal,
		m.GatewayRequestsTotal,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The Record helpers below tolerate a nil receiver so that services can be
// built without metrics in tests.

// RecordWebhook counts one reconciled webhook target
func (m *Metrics) RecordWebhook(signal, result string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(signal, result).Inc()
}

// RecordWebhookRejected counts a delivery refused before decoding
func (m *Metrics) RecordWebhookRejected(reason string) {
	if m == nil {
		return
	}
	m.WebhookRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordLockRetry counts an optimistic lock conflict
func (m *Metrics) RecordLockRetry(aggregate string) {
	if m == nil {
		return
	}
	m.LockRetriesTotal.WithLabelValues(aggregate).Inc()
}

// RecordStockDecrement counts a stock decrement by result
func (m *Metrics) RecordStockDecrement(result string) {
	if m == nil {
		return
	}
	m.StockDecrementsTotal.WithLabelValues(result).Inc()
}

// RecordSideEffectFailure counts a failed event handler
func (m *Metrics) RecordSideEffectFailure(handler string) {
	if m == nil {
		return
	}
	m.SideEffectFailuresTotal.WithLabelValues(handler).Inc()
}

// RecordGatewayRequest counts an outbound gateway call
func (m *Metrics) RecordGatewayRequest(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.GatewayRequestsTotal.WithLabelValues(operation, result).Inc()
}
