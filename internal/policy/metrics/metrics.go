package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy registry.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Lookups       *prometheus.CounterVec
}

// New creates and registers all policy registry metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_policy_registrations_total",
			Help: "Policy registrations by result",
		}, []string{"result"}), // result: "created", "updated", "conflict"

		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_policy_lookups_total",
			Help: "Policy lookups by result",
		}, []string{"result"}), // result: "found", "default", "missing"
	}
}

// RecordRegistration counts a registration attempt by result.
func (m *Metrics) RecordRegistration(result string) {
	if m != nil {
		m.Registrations.WithLabelValues(result).Inc()
	}
}

// RecordLookup counts a policy lookup by result.
func (m *Metrics) RecordLookup(result string) {
	if m != nil {
		m.Lookups.WithLabelValues(result).Inc()
	}
}
