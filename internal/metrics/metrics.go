// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Report aggregation latency and outcomes
// - Google Analytics Data API query performance per facet
// - Badger document store operations
// - Response cache efficiency
// - Heartbeat ingestion and live visitor tracking
// - Circuit breaker state

var (
	// Report Aggregation Metrics
	ReportFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_fetch_duration_seconds",
			Help:    "Duration of full report aggregation runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"range"},
	)

	ReportFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_fetch_total",
			Help: "Total number of report aggregation runs by outcome",
		},
		[]string{"range", "status"}, // status: "ok", "error"
	)

	ReportRealtimeDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_realtime_degraded_total",
			Help: "Total number of reports served with a zeroed realtime block",
		},
	)

	ReportCacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_writes_total",
			Help: "Total number of report documents persisted to the store",
		},
		[]string{"kind"}, // "report", "daily_series"
	)

	// Google Analytics Query Metrics
	GAQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ga_query_duration_seconds",
			Help:    "Duration of Google Analytics Data API queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"facet"},
	)

	GAQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga_query_errors_total",
			Help: "Total number of failed Google Analytics Data API queries",
		},
		[]string{"facet"},
	)

	GARowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ga_rows_returned",
			Help:    "Number of rows returned per Google Analytics query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"facet"},
	)

	// Document Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "kind"}, // operation: "get", "merge", "put", "delete"
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation", "kind", "error_type"},
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "report", "live_stats"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Heartbeat Metrics
	HeartbeatsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heartbeats_received_total",
			Help: "Total number of heartbeat events recorded",
		},
	)

	HeartbeatBufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heartbeat_buffer_entries",
			Help: "Current number of heartbeat events held in the ring buffer",
		},
	)

	LiveVisitors = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "live_visitors",
			Help: "Distinct visitors observed in the sliding window",
		},
		[]string{"window"}, // "1m", "5m", "15m"
	)

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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	APIAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		},
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
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordReportFetch records the outcome of a full report aggregation run.
func RecordReportFetch(rangeLabel string, duration time.Duration, err error) {
	ReportFetchDuration.WithLabelValues(rangeLabel).Observe(duration.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	ReportFetchTotal.WithLabelValues(rangeLabel, status).Inc()
}

// RecordGAQuery records a single Google Analytics Data API query.
func RecordGAQuery(facet string, duration time.Duration, rows int, err error) {
	GAQueryDuration.WithLabelValues(facet).Observe(duration.Seconds())
	if err != nil {
		GAQueryErrors.WithLabelValues(facet).Inc()
		return
	}
	GARowsReturned.WithLabelValues(facet).Observe(float64(rows))
}

// RecordStoreOperation records a document store operation metric.
func RecordStoreOperation(operation, kind string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, kind).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		StoreOperationErrors.WithLabelValues(operation, kind, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// UpdateLiveVisitorGauges updates the sliding-window visitor gauges.
func UpdateLiveVisitorGauges(m1, m5, m15 int) {
	LiveVisitors.WithLabelValues("1m").Set(float64(m1))
	LiveVisitors.WithLabelValues("5m").Set(float64(m5))
	LiveVisitors.WithLabelValues("15m").Set(float64(m15))
}
