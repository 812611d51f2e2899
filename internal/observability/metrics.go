package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostWrites counts persisted post mutations by operation (create, update).
	PostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_post_writes_total",
		Help: "Total number of persisted post mutations",
	}, []string{"operation"})

	// FormRejections counts post form submissions rejected by validation.
	FormRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_form_rejections_total",
		Help: "Total number of post form submissions rejected by validation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
