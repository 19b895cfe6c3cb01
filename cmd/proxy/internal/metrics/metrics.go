// Package metrics holds the Prometheus collectors exported by the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xminecraft_proxy"

// Metrics groups every collector the proxy updates.
type Metrics struct {
	Connections       *prometheus.CounterVec
	HandshakeFailures *prometheus.CounterVec
	Rejected          *prometheus.CounterVec
	DialFailures      prometheus.Counter
	ActiveSessions    prometheus.Gauge
	RelayedBytes      *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
}

// New registers the collectors on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted connections by classified kind.",
		}, []string{"kind"}),
		HandshakeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Connections dropped before relaying, by reason.",
		}, []string{"reason"}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_connections_total",
			Help:      "Connections closed at accept time by admission control.",
		}, []string{"reason"}),
		DialFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dial_failures_total",
			Help:      "Failed outbound connections to the backend.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Relay sessions currently splicing bytes.",
		}),
		RelayedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_bytes_total",
			Help:      "Bytes copied by the relay, by direction.",
		}, []string{"direction"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of relay sessions.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 4 * 3600},
		}),
	}
}
