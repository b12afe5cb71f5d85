package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for sanctions aggregation.
type Metrics struct {
	SourceLatency  *prometheus.HistogramVec
	SourceFailures *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	Flagged        prometheus.Counter
}

// New creates and registers all sanctions metrics.
func New() *Metrics {
	return &Metrics{
		SourceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustline_sanctions_source_duration_seconds",
			Help:    "Duration of sanction source queries by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),

		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_sanctions_source_failures_total",
			Help: "Sanction source query failures by source and applied strictness",
		}, []string{"source", "strictness"}), // strictness: "fail_closed", "fail_open"

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_sanctions_cache_total",
			Help: "Verdict cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		Flagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustline_sanctions_flagged_total",
			Help: "Total addresses flagged as sanctioned",
		}),
	}
}

// ObserveSourceLatency records the duration of one source query.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// RecordSourceFailure counts an unavailable source and the strictness applied.
func (m *Metrics) RecordSourceFailure(source, strictness string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source, strictness).Inc()
	}
}

// RecordCacheHit counts a verdict cache hit.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.WithLabelValues("hit").Inc()
	}
}

// RecordCacheMiss counts a verdict cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheHits.WithLabelValues("miss").Inc()
	}
}

// RecordFlagged counts a sanctioned address.
func (m *Metrics) RecordFlagged() {
	if m != nil {
		m.Flagged.Inc()
	}
}
