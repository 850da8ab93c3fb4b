package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream provider call rate by provider (weather, image, quote). Watch for: error vs success ratio.
	ProviderCallsTotal *prometheus.CounterVec

	// Upstream provider latency. Watch for: p95 > 2s (upstream degradation), p99 > 5s (timeout risk).
	ProviderCallDuration *prometheus.HistogramVec

	// Retry attempts against the weather provider. Watch for: high retries = unstable upstream.
	WeatherAPIRetriesTotal prometheus.Counter

	// Cache hits by cache (weather, photo). Hit rate = hits/(hits+misses).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend errors by operation. Only the memcached backend can error.
	CacheErrorsTotal *prometheus.CounterVec

	// Which fallback stage served each dashboard producer. Anything past the
	// first stage means the primary path failed; last-resort stages firing is
	// an incident signal.
	FallbackStageTotal *prometheus.CounterVec

	// Geolocation lookups by outcome. Errors here are normal (nil location).
	GeoLookupsTotal *prometheus.CounterVec

	// Dashboard snapshot refreshes by trigger (startup, scheduled, request).
	DashboardRefreshTotal *prometheus.CounterVec

	// Full snapshot assembly latency.
	DashboardRefreshDuration prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
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
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of upstream provider calls",
		},
		[]string{"provider", "status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Upstream provider latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total number of retry attempts for weather provider calls",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits by cache",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Total number of cache backend errors by operation",
		},
		[]string{"operation", "cacheType"},
	)
	FallbackStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallbackStageTotal",
			Help: "Which fallback stage served each dashboard producer",
		},
		[]string{"producer", "stage"},
	)
	GeoLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoLookupsTotal",
			Help: "Geolocation lookups by outcome",
		},
		[]string{"status"},
	)
	DashboardRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboardRefreshTotal",
			Help: "Dashboard snapshot refreshes by trigger",
		},
		[]string{"trigger"},
	)
	DashboardRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboardRefreshDurationSeconds",
			Help:    "Full dashboard snapshot assembly latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ProviderCallsTotal, ProviderCallDuration, WeatherAPIRetriesTotal,
		CacheHitsTotal, CacheErrorsTotal,
		FallbackStageTotal, GeoLookupsTotal,
		DashboardRefreshTotal, DashboardRefreshDuration,
		RateLimitDeniedTotal,
	)
}

// RecordFallbackStage records which stage of a producer's fallback chain
// served the result.
func RecordFallbackStage(producer, stage string) {
	FallbackStageTotal.WithLabelValues(producer, stage).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
