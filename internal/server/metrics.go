package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the server's Prometheus collectors on a private
// registry, so tests can construct servers without duplicate
// registration panics.
type metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	sessions     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jat_http_requests_total",
			Help: "HTTP requests served, by method and path.",
		}, []string{"method", "path"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jat_state_transitions_total",
			Help: "Session state transitions observed, by resulting state.",
		}, []string{"to"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jat_sessions",
			Help: "Sessions visible at the last listing.",
		}),
	}

	m.registry.MustRegister(m.httpRequests, m.transitions, m.sessions)
	return m
}
