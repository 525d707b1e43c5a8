// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded for provider calls.
const (
	OutcomeSuccess   = "success"
	OutcomeCacheHit  = "cache_hit"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
	OutcomeOpen      = "circuit_open"
	OutcomeBadStatus = "bad_status"
)

var (
	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantry_provider_requests_total",
			Help: "Total number of external recipe provider lookups by outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantry_provider_request_duration_seconds",
			Help:    "Duration of external recipe provider HTTP calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pantry_provider_circuit_state",
			Help: "Circuit breaker state per provider and kind (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider", "kind"},
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantry_cache_lookups_total",
			Help: "Cache lookups by namespace and result (hit, miss, error)",
		},
		[]string{"namespace", "result"},
	)

	// Aggregation Metrics
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantry_aggregation_duration_seconds",
			Help:    "Duration of aggregation fan-outs on cache miss",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	AggregationBranchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantry_aggregation_branch_failures_total",
			Help: "Fan-out branches that failed and contributed no results",
		},
		[]string{"kind", "branch"},
	)

	QueryLogsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pantry_query_logs_purged_total",
			Help: "Search query logs removed by the retention job",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantry_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantry_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordProviderCall records one provider lookup and, for network calls, its duration.
func RecordProviderCall(provider, operation, outcome string, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, operation, outcome).Inc()
	if outcome != OutcomeCacheHit && duration > 0 {
		ProviderDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	}
}

// RecordCacheLookup records a cache hit, miss or error for namespace.
func RecordCacheLookup(namespace string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	CacheLookups.WithLabelValues(namespace, result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
