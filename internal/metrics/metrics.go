// Package metrics defines the Prometheus collectors techdoc exports.
//
// A nil *Metrics is valid and records nothing, so packages can take one
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "techdoc"

// Metrics holds every collector.
type Metrics struct {
	storeWrites    *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	usageBytes     prometheus.Gauge
	liveSessions   prometheus.Gauge
	liveTimers     prometheus.Gauge
	jobsCompleted  prometheus.Counter
	importRecords  *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		storeWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Collection writes by key and result (ok, capacity, error).",
		}, []string{"key", "result"}),
		decodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "decode_failures_total",
			Help:      "Persisted values that could not be decoded and were treated as empty.",
		}, []string{"key"}),
		usageBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "usage_bytes",
			Help:      "Estimated bytes persisted under managed keys.",
		}),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Live sessions currently active.",
		}),
		liveTimers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "timers",
			Help:      "Display tickers currently running.",
		}),
		jobsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "jobs_completed_total",
			Help:      "Jobs completed through a live session.",
		}),
		importRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "import_records_total",
			Help:      "Imported records by collection and outcome (added, skipped).",
		}, []string{"collection", "outcome"}),
	}
}

func (m *Metrics) StoreWrite(key, result string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(key, result).Inc()
}

func (m *Metrics) DecodeFailure(key string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(key).Inc()
}

func (m *Metrics) SetUsage(bytes int64) {
	if m == nil {
		return
	}
	m.usageBytes.Set(float64(bytes))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

func (m *Metrics) TimerStarted() {
	if m == nil {
		return
	}
	m.liveTimers.Inc()
}

func (m *Metrics) TimerStopped() {
	if m == nil {
		return
	}
	m.liveTimers.Dec()
}

func (m *Metrics) JobCompleted() {
	if m == nil {
		return
	}
	m.jobsCompleted.Inc()
}

func (m *Metrics) Imported(collection string, added, skipped int) {
	if m == nil {
		return
	}
	m.importRecords.WithLabelValues(collection, "added").Add(float64(added))
	m.importRecords.WithLabelValues(collection, "skipped").Add(float64(skipped))
}
