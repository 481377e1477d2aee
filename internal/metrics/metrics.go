// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation calls by experiment group and outcome",
		},
		[]string{"group", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent building, scoring and ranking one recommendation call",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"group"},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Number of posts left to score after excluding liked posts",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8), // 10 .. 163840
		},
	)

	ModelScoringErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_scoring_errors_total",
			Help: "Total number of scoring failures downgraded to an empty result",
		},
		[]string{"group"},
	)

	// Feature Snapshot Metrics
	FeatureSnapshotRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feature_snapshot_rows",
			Help: "Rows in the active feature snapshot",
		},
		[]string{"table"},
	)

	FeatureSnapshotLoadedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feature_snapshot_loaded_timestamp_seconds",
			Help: "Unix time the active feature snapshot was loaded",
		},
	)

	FeatureSnapshotLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_snapshot_load_duration_seconds",
			Help:    "Duration of a full feature snapshot load",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation"},
	)

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retried attempts of I/O operations",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures counted by the circuit breaker",
		},
		[]string{"name"},
	)

	// Cache Metrics
	PostCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "post_cache_hits_total",
			Help: "Total post metadata cache hits",
		},
	)

	PostCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "post_cache_misses_total",
			Help: "Total post metadata cache misses",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of one recommendation call.
func RecordRecommendation(group, outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(group, outcome).Inc()
	RecommendationDuration.WithLabelValues(group).Observe(duration.Seconds())
}

// RecordCandidates records how many posts were handed to the model.
func RecordCandidates(n int) {
	RecommendationCandidates.Observe(float64(n))
}

// RecordScoringError counts a scoring failure for the given group.
func RecordScoringError(group string) {
	ModelScoringErrors.WithLabelValues(group).Inc()
}

// RecordSnapshot publishes the size and age of a freshly installed snapshot.
func RecordSnapshot(users, posts int, loadedAt time.Time, duration time.Duration) {
	FeatureSnapshotRows.WithLabelValues("users").Set(float64(users))
	FeatureSnapshotRows.WithLabelValues("posts").Set(float64(posts))
	FeatureSnapshotLoadedAt.Set(float64(loadedAt.Unix()))
	FeatureSnapshotLoadDuration.Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRetry counts one retried attempt of operation.
func RecordRetry(operation string) {
	RetryAttempts.WithLabelValues(operation).Inc()
}

// RecordPostCache records a post metadata cache lookup.
func RecordPostCache(hit bool) {
	if hit {
		PostCacheHits.Inc()
	} else {
		PostCacheMisses.Inc()
	}
}
