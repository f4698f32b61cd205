package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate on the presentation API. Watch for: renderer polling anomalies.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent API requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream API call rate by service (geocoding, forecast, timezone, news) and status.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream API latency by service. Watch for: p95 > 2s (upstream degradation).
	UpstreamCallDuration *prometheus.HistogramVec

	// Retry attempts against upstreams. High retries = unstable upstream.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Per-city refresh attempts by outcome (success, error, timeout).
	RefreshTotal *prometheus.CounterVec

	// Wall-clock duration of a full refresh-all pass.
	RefreshCycleDuration prometheus.Histogram

	// Refresh-all passes by trigger (scheduled, manual).
	RefreshCyclesTotal *prometheus.CounterVec

	// Timezone lookups that fell back to the local zone.
	TimezoneFallbacksTotal prometheus.Counter

	// Store persist operations by status (success, error).
	StorePersistTotal *prometheus.CounterVec

	// Number of cities currently tracked.
	TrackedCities prometheus.Gauge

	// Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker state transitions per upstream.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests on the dashboard API",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "Dashboard API request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of API requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream API calls",
		},
		[]string{"service", "status"},
	)
	UpstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamCallDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of upstream call retries",
		},
		[]string{"service"},
	)
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cityRefreshTotal",
			Help: "Per-city refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
	RefreshCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refreshCycleDurationSeconds",
			Help:    "Wall-clock duration of a refresh-all pass",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 15, 30, 60},
		},
	)
	RefreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshCyclesTotal",
			Help: "Refresh-all passes by trigger",
		},
		[]string{"trigger"},
	)
	TimezoneFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timezoneFallbacksTotal",
			Help: "Timezone lookups that fell back to the local zone",
		},
	)
	StorePersistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storePersistTotal",
			Help: "City store persist operations by status",
		},
		[]string{"status"},
	)
	TrackedCities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackedCities",
			Help: "Number of cities currently tracked",
		},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions per upstream",
		},
		[]string{"service", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		UpstreamCallsTotal,
		UpstreamCallDuration,
		UpstreamRetriesTotal,
		RefreshTotal,
		RefreshCycleDuration,
		RefreshCyclesTotal,
		TimezoneFallbacksTotal,
		StorePersistTotal,
		TrackedCities,
		CircuitBreakerState,
		CircuitBreakerTransitionsTotal,
	)
}

// MetricsHandler returns the HTTP handler for the /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
