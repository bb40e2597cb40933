// Package metrics exposes the storefront's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	CartOps  *prometheus.CounterVec
}

// New registers the collectors on reg. sessions, when non-nil, backs a gauge
// of live sessions.
func New(reg prometheus.Registerer, sessions func() int) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		CartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_operations_total",
			Help:      "Cart operations by kind and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.Requests, m.Latency, m.CartOps)
	if sessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "sessions_live",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(sessions()) }))
	}
	return m
}

// CartOp counts one cart operation. A nil receiver is a no-op.
func (m *Metrics) CartOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CartOps.WithLabelValues(op, outcome).Inc()
}
