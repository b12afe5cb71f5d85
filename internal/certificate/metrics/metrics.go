package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for certificate verification.
type Metrics struct {
	Verifications *prometheus.CounterVec
}

// New creates and registers all certificate metrics.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_certificate_verifications_total",
			Help: "Certificate verification outcomes by result",
		}, []string{"result"}), // result: "ok", "bad_signature", "expired", "subject_mismatch", "replayed"
	}
}

// RecordSuccess counts a successful verification.
func (m *Metrics) RecordSuccess() {
	if m != nil {
		m.Verifications.WithLabelValues("ok").Inc()
	}
}

// RecordFailure counts a failed verification by reason.
func (m *Metrics) RecordFailure(reason string) {
	if m != nil {
		m.Verifications.WithLabelValues(reason).Inc()
	}
}
