// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreQueryLatency records document store query latency by operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_store_query_latency_seconds",
		Help:    "Document store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// StoreErrorsTotal counts unexpected document store failures by operation and collection.
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_store_errors_total",
		Help: "Total number of document store errors",
	}, []string{"operation", "collection"})

	// PostViewsTotal counts authenticated post detail reads that incremented the view counter.
	PostViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_post_views_total",
		Help: "Total number of counted post views",
	})
)

// ObserveQuery records the latency of a store query.
func ObserveQuery(operation, collection string, start time.Time) {
	StoreQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, collection, start)
	}
}

// RecordStoreError increments the store error counter.
func RecordStoreError(operation, collection string) {
	StoreErrorsTotal.WithLabelValues(operation, collection).Inc()
}
