package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation engine.
type Metrics struct {
	// Evidence gathering latencies by check
	EvidenceLatency *prometheus.HistogramVec

	// Decision outcomes by allowed/denied and reason
	Decisions *prometheus.CounterVec

	// Overall evaluation latency including evidence gathering
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		EvidenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustline_engine_evidence_duration_seconds",
			Help:    "Duration of evidence gathering operations by check",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"check"}), // check: "certificate", "sanctions", "identity"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_engine_decisions_total",
			Help: "Total decisions by outcome and reason",
		}, []string{"outcome", "reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustline_engine_evaluate_duration_seconds",
			Help:    "Duration of full decision evaluation including evidence gathering",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveEvidenceLatency records the duration of one evidence fetch.
func (m *Metrics) ObserveEvidenceLatency(check string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(check).Observe(d.Seconds())
	}
}

// RecordDecision records a decision outcome.
func (m *Metrics) RecordDecision(allowed bool, reason string) {
	if m != nil {
		outcome := "denied"
		if allowed {
			outcome = "allowed"
		}
		m.Decisions.WithLabelValues(outcome, reason).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
