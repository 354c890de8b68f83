// Package metrics exposes Prometheus collectors for aggregation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"evedash/pkg/models"
)

// Event outcomes recorded per aggregation run.
const (
	OutcomeCounted      = "counted"
	OutcomeNoAlert      = "no_alert"
	OutcomeOutOfWindow  = "out_of_window"
	OutcomeBadTimestamp = "bad_timestamp"
)

// Metrics holds the dashboard's Prometheus collectors.
type Metrics struct {
	Aggregations        prometheus.Counter
	AggregationEvents   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	SnapshotWrites      *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Aggregations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "evedash_aggregations_total",
			Help: "Total number of aggregation runs.",
		}),
		AggregationEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "evedash_aggregation_events_total",
			Help: "Events scanned by aggregation runs, by outcome.",
		}, []string{"outcome"}),
		AggregationDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "evedash_aggregation_duration_seconds",
			Help:    "Duration of aggregation runs in seconds.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SnapshotWrites: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "evedash_snapshot_writes_total",
			Help: "Snapshot deliveries, by sink and status.",
		}, []string{"sink", "status"}),
	}
}

// ObserveAggregation records one aggregation run.
func (m *Metrics) ObserveAggregation(stats models.AggregationStats, took time.Duration) {
	if m == nil {
		return
	}
	m.Aggregations.Inc()
	m.AggregationEvents.WithLabelValues(OutcomeCounted).Add(float64(stats.Counted))
	m.AggregationEvents.WithLabelValues(OutcomeNoAlert).Add(float64(stats.NoAlert))
	m.AggregationEvents.WithLabelValues(OutcomeOutOfWindow).Add(float64(stats.OutOfWindow))
	m.AggregationEvents.WithLabelValues(OutcomeBadTimestamp).Add(float64(stats.BadTimestamp))
	m.AggregationDuration.Observe(took.Seconds())
}

// ObserveWrite records one snapshot delivery.
func (m *Metrics) ObserveWrite(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SnapshotWrites.WithLabelValues(sink, status).Inc()
}
