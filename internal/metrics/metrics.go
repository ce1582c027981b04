// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"backend"}, // redis, local
	)

	// User store
	UserOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_store_operations_total",
			Help: "User store operations by outcome",
		},
		[]string{"op", "result"}, // result: ok, rejected, persist_failed
	)

	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "user_store_users",
			Help: "Number of registered users",
		},
	)

	// Recommendations
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests by matched weather condition and outcome",
		},
		[]string{"condition", "result"}, // result: matched, no_matches, invalid
	)

	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_movies",
			Help: "Number of movies in the loaded catalog",
		},
	)

	// Cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	// Circuit breakers
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
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// StoreResult classifies a user store call for UserOperations.
func StoreResult(err error, validation bool) string {
	switch {
	case err == nil:
		return "ok"
	case validation:
		return "rejected"
	default:
		return "persist_failed"
	}
}

// CacheResult labels a cache lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
