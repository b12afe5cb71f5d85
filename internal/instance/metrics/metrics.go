package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the instance module.
type Metrics struct {
	Creations *prometheus.CounterVec
	Upgrades  *prometheus.CounterVec
}

// New creates a Metrics instance with all instance module metrics registered.
func New() *Metrics {
	return &Metrics{
		Creations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_instance_creations_total",
			Help: "Total instance creation attempts by outcome",
		}, []string{"outcome"}), // outcome: "created", "conflict", "rejected"

		Upgrades: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_instance_upgrades_total",
			Help: "Total logic upgrade attempts by outcome",
		}, []string{"outcome"}), // outcome: "upgraded", "missing", "rejected"
	}
}

// RecordCreation records a creation attempt outcome.
func (m *Metrics) RecordCreation(outcome string) {
	if m != nil {
		m.Creations.WithLabelValues(outcome).Inc()
	}
}

// RecordUpgrade records an upgrade attempt outcome.
func (m *Metrics) RecordUpgrade(outcome string) {
	if m != nil {
		m.Upgrades.WithLabelValues(outcome).Inc()
	}
}
