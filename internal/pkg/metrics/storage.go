// Package metrics exposes Prometheus collectors for the storage lifecycle engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dealer"

// GC run outcomes
const (
	OutcomeCompleted   = "completed"
	OutcomeNothingToDo = "nothing_to_do"
	OutcomeLocked      = "locked"
	OutcomeFailed      = "failed"
)

// StorageMetrics holds usage, GC, alert and compression collectors.
type StorageMetrics struct {
	// TotalBytes is the bucket size observed by the last successful listing.
	TotalBytes prometheus.Gauge
	// ObjectCount is the object count observed by the last successful listing.
	ObjectCount prometheus.Gauge
	// LargestObjectBytes is the largest object seen by the last successful listing.
	LargestObjectBytes prometheus.Gauge
	// Available is 1 when the last listing succeeded and 0 when the store was unavailable.
	Available prometheus.Gauge

	// Alerts counts currently active alerts by severity.
	Alerts *prometheus.GaugeVec

	GCRuns           *prometheus.CounterVec
	GCObjectsDeleted *prometheus.CounterVec
	GCObjectsFailed  *prometheus.CounterVec
	GCBytesFreed     *prometheus.CounterVec
	GCRunDuration    *prometheus.HistogramVec

	// CompressionOutputBytes observes encoded upload sizes.
	CompressionOutputBytes prometheus.Histogram
}

// NewStorageMetrics creates metrics registered with the default registry.
func NewStorageMetrics() *StorageMetrics {
	return NewStorageMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewStorageMetricsWithRegistry creates metrics registered with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewStorageMetricsWithRegistry(reg prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		TotalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "storage", Name: "total_bytes",
			Help: "Total bytes stored in the bucket at the last successful listing.",
		}),
		ObjectCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "storage", Name: "object_count",
			Help: "Number of objects in the bucket at the last successful listing.",
		}),
		LargestObjectBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "storage", Name: "largest_object_bytes",
			Help: "Size of the largest object at the last successful listing.",
		}),
		Available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "storage", Name: "available",
			Help: "1 if the object store answered the last listing, 0 otherwise.",
		}),
		Alerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "storage", Name: "alerts",
			Help: "Active storage alerts by severity at the last evaluation.",
		}, []string{"severity"}),
		GCRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gc", Name: "runs_total",
			Help: "Cleanup invocations by trigger type and outcome.",
		}, []string{"trigger", "outcome"}),
		GCObjectsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gc", Name: "objects_deleted_total",
			Help: "Objects deleted from the store by cleanup runs.",
		}, []string{"trigger"}),
		GCObjectsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gc", Name: "objects_failed_total",
			Help: "Store deletes that failed during cleanup runs.",
		}, []string{"trigger"}),
		GCBytesFreed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gc", Name: "bytes_freed_total",
			Help: "Catalog-recorded bytes released by cleanup runs.",
		}, []string{"trigger"}),
		GCRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "gc", Name: "run_duration_seconds",
			Help:    "Wall time of cleanup runs that had work to do.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"trigger"}),
		CompressionOutputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "compression", Name: "output_bytes",
			Help:    "Size of re-encoded uploads.",
			Buckets: prometheus.ExponentialBuckets(8*1024, 2, 10),
		}),
	}

	reg.MustRegister(
		m.TotalBytes, m.ObjectCount, m.LargestObjectBytes, m.Available, m.Alerts,
		m.GCRuns, m.GCObjectsDeleted, m.GCObjectsFailed, m.GCBytesFreed, m.GCRunDuration,
		m.CompressionOutputBytes,
	)
	return m
}

// ObserveUsage records a successful listing.
func (m *StorageMetrics) ObserveUsage(totalBytes, objectCount, largest int64) {
	if m == nil {
		return
	}
	m.TotalBytes.Set(float64(totalBytes))
	m.ObjectCount.Set(float64(objectCount))
	m.LargestObjectBytes.Set(float64(largest))
	m.Available.Set(1)
}

// ObserveUnavailable records a listing that could not reach the store.
// The usage gauges keep their last known values.
func (m *StorageMetrics) ObserveUnavailable() {
	if m == nil {
		return
	}
	m.Available.Set(0)
}

// ObserveAlerts replaces the alert gauges with counts per severity.
func (m *StorageMetrics) ObserveAlerts(bySeverity map[string]int) {
	if m == nil {
		return
	}
	m.Alerts.Reset()
	for severity, n := range bySeverity {
		m.Alerts.WithLabelValues(severity).Set(float64(n))
	}
}

// ObserveGCRun records the outcome of one cleanup invocation.
func (m *StorageMetrics) ObserveGCRun(trigger, outcome string, deleted, failed int, bytesFreed int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GCRuns.WithLabelValues(trigger, outcome).Inc()
	if outcome != OutcomeCompleted {
		return
	}
	m.GCObjectsDeleted.WithLabelValues(trigger).Add(float64(deleted))
	m.GCObjectsFailed.WithLabelValues(trigger).Add(float64(failed))
	m.GCBytesFreed.WithLabelValues(trigger).Add(float64(bytesFreed))
	m.GCRunDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// ObserveCompression records the size of an encoded upload.
func (m *StorageMetrics) ObserveCompression(outputBytes int) {
	if m == nil {
		return
	}
	m.CompressionOutputBytes.Observe(float64(outputBytes))
}
