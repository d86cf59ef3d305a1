package sink

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the sink.
//
// All recording methods are nil-safe so that library users who do not care
// about metrics can simply pass a nil *Metrics.
type Metrics struct {
	// Batch writer
	batchesPersisted prometheus.Counter
	batchesFailed    prometheus.Counter
	recordsWritten   prometheus.Counter
	persistDuration  prometheus.Histogram

	// Retention cleaner
	rowsPruned   prometheus.Counter
	passFailures prometheus.Counter
	passDuration prometheus.Histogram

	// Batching layer
	recordsDropped prometheus.Counter
}

// NewMetrics creates a new Metrics instance with Prometheus collectors. The
// collectors are registered with reg, or with the default registerer when reg
// is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		batchesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_sink_batches_persisted_total",
			Help: "Total number of batches committed to the store",
		}),

		batchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_sink_batches_failed_total",
			Help: "Total number of batches rolled back and reported as failed",
		}),

		recordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_sink_records_written_total",
			Help: "Total number of log records committed to the store",
		}),

		persistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callisto_sink_persist_duration_seconds",
			Help:    "Duration of batch persist operations",
			Buckets: prometheus.DefBuckets,
		}),

		rowsPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_retention_rows_pruned_total",
			Help: "Total number of expired rows deleted by retention cleanup",
		}),

		passFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_retention_pass_failures_total",
			Help: "Total number of retention cleanup passes aborted by an error",
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callisto_retention_pass_duration_seconds",
			Help:    "Duration of retention cleanup passes",
			Buckets: prometheus.DefBuckets,
		}),

		recordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "callisto_batching_records_dropped_total",
			Help: "Total number of records dropped by the batching layer",
		}),
	}
}

// ObservePersist records the outcome of one batch persist operation.
func (m *Metrics) ObservePersist(ok bool, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.persistDuration.Observe(elapsed.Seconds())
	if ok {
		m.batchesPersisted.Inc()
		m.recordsWritten.Add(float64(records))
		return
	}
	m.batchesFailed.Inc()
}

// ObservePass records the outcome of one retention cleanup pass.
func (m *Metrics) ObservePass(deleted int64, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.passDuration.Observe(elapsed.Seconds())
	m.rowsPruned.Add(float64(deleted))
	if err != nil {
		m.passFailures.Inc()
	}
}

// ObserveDropped records n records dropped by the batching layer.
func (m *Metrics) ObserveDropped(n int) {
	if m == nil {
		return
	}
	m.recordsDropped.Add(float64(n))
}
