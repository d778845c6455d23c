package factory

import (
	"github.com/prometheus/client_golang/prometheus"
)

// --- Metrics ---

// Metrics holds all the Prometheus metrics for the factory client.
type Metrics struct {
	createDuration *prometheus.HistogramVec
	createsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics for the factory client.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		createDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barrel_factory_create_duration_seconds",
			Help:    "Time taken to sign and send a create transaction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"network"}),
		createsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barrel_factory_creates_total",
			Help: "Total number of create transactions attempted, labeled by network and result.",
		}, []string{"network", "result"}),
	}
	reg.MustRegister(m.createDuration, m.createsTotal)
	return m
}
