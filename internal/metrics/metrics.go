// Package metrics exposes prometheus counters for the order workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	OrdersSubmitted   *prometheus.CounterVec
	OrdersCompleted   *prometheus.CounterVec
	OrdersFailed      *prometheus.CounterVec
	PaymentsCancelled prometheus.Counter
	GatewayStage      *prometheus.HistogramVec
	BackendCalls      *prometheus.HistogramVec
}

// New registers the collectors in reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		OrdersSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurum_orders_submitted_total",
				Help: "Orders submitted to the backend, by operation and whether they were simulated",
			},
			[]string{"operation", "simulated"},
		),
		OrdersCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurum_orders_completed_total",
				Help: "Orders whose payment was verified",
			},
			[]string{"operation"},
		),
		OrdersFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurum_orders_failed_total",
				Help: "Orders that failed after validation",
			},
			[]string{"operation", "reason"},
		),
		PaymentsCancelled: f.NewCounter(
			prometheus.CounterOpts{
				Name: "aurum_payments_cancelled_total",
				Help: "Checkouts cancelled by the user",
			},
		),
		GatewayStage: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurum_gateway_stage_duration_seconds",
				Help:    "Time spent in each mock gateway processing stage",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 6),
			},
			[]string{"stage"},
		),
		BackendCalls: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurum_backend_call_duration_seconds",
				Help:    "Latency of backend HTTP calls",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"endpoint", "outcome"},
		),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderSubmitted(operation string, simulated bool) {
	if m == nil {
		return
	}
	label := "false"
	if simulated {
		label = "true"
	}
	m.OrdersSubmitted.WithLabelValues(operation, label).Inc()
}

func (m *Metrics) OrderCompleted(operation string) {
	if m == nil {
		return
	}
	m.OrdersCompleted.WithLabelValues(operation).Inc()
}

func (m *Metrics) OrderFailed(operation, reason string) {
	if m == nil {
		return
	}
	m.OrdersFailed.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) PaymentCancelled() {
	if m == nil {
		return
	}
	m.PaymentsCancelled.Inc()
}

func (m *Metrics) ObserveGatewayStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GatewayStage.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ObserveBackendCall records one backend round trip.
func (m *Metrics) ObserveBackendCall(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BackendCalls.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}
