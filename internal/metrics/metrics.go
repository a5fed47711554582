// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VisitsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitlog_visits_inserted_total",
		Help: "Total number of visit rows inserted.",
	})

	DurationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitlog_duration_updates_total",
		Help: "Session duration updates, labelled by whether a page view was found.",
	}, []string{"result"})

	IngestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitlog_ingest_rejected_total",
		Help: "Beacons rejected before reaching storage, labelled by reason.",
	}, []string{"reason"})

	PixelFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitlog_pixel_fallbacks_total",
		Help: "Pixel beacons whose data parameter was not valid JSON.",
	})

	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitlog_backups_total",
		Help: "Database backups attempted, labelled by status.",
	}, []string{"status"})

	StorageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visitlog_storage_duration_seconds",
		Help:    "Latency of storage gateway calls.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"op"})
)

// ObserveStorage records the time elapsed since start for op. Meant to be deferred.
func ObserveStorage(op string, start time.Time) {
	StorageDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
