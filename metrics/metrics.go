// Package metrics provides Prometheus metrics for the ledgermatch service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledgermatch"

// Engine labels for ranking metrics.
const (
	EngineMatch  = "match"
	EngineSearch = "search"
)

var (
	// HTTPRequestsTotal tracks inbound HTTP requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// RankingDuration tracks how long each engine takes per call
	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "duration_seconds",
			Help:      "Duration of ranking calls in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"engine"},
	)

	// CandidatesScored tracks the number of candidates each engine has scored
	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "candidates_scored_total",
			Help:      "Total number of candidates scored",
		},
		[]string{"engine"},
	)

	// MatchesReturned tracks result sizes before truncation
	MatchesReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "matches",
			Help:      "Number of matches per ranking call",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"engine"},
	)

	// ProviderErrors tracks embedding provider failures by stage
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "provider_errors_total",
			Help:      "Total number of embedding provider failures",
		},
		[]string{"stage"},
	)

	// EmbeddingBatches tracks item batches sent to the provider
	EmbeddingBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "batches_total",
			Help:      "Total number of item batches embedded",
		},
	)

	// CacheLookups tracks vector cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of vector cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records an inbound HTTP request metric
func RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordRanking records one completed ranking call
func RecordRanking(engine string, candidates, matches int, durationSeconds float64) {
	RankingDuration.WithLabelValues(engine).Observe(durationSeconds)
	CandidatesScored.WithLabelValues(engine).Add(float64(candidates))
	MatchesReturned.WithLabelValues(engine).Observe(float64(matches))
}

// RecordCacheLookup records a vector cache lookup. It fits cache.WithOnLookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}
