// Package metrics registers the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors the handlers and workers record into.
type Metrics struct {
	// HTTP request totals by method, path and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency by method and path.
	HTTPRequestDuration *prometheus.HistogramVec

	// Hold attempts by outcome (created, conflict, not_found, invalid, error).
	HoldsTotal *prometheus.CounterVec

	// Confirm attempts by outcome (confirmed, conflict, not_found, error).
	ConfirmationsTotal *prometheus.CounterVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with the given registry. Tests
// pass their own registry to avoid duplicate-registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HoldsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_holds_total",
				Help: "Total number of hold attempts",
			},
			[]string{"outcome"},
		),
		ConfirmationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_confirmations_total",
				Help: "Total number of confirm attempts",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HoldsTotal,
		m.ConfirmationsTotal,
	)
	return m
}
