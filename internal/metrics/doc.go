// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Report aggregation runs and their outcomes
  - Google Analytics Data API query performance per facet
  - Document store operation latency
  - Response cache hit/miss rates
  - Heartbeat ingestion and live visitor counts
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Report Metrics:
  - report_fetch_duration_seconds: Full aggregation run latency (histogram)
    Labels: range
  - report_fetch_total: Aggregation runs (counter)
    Labels: range, status
  - report_realtime_degraded_total: Reports served with zeroed realtime data (counter)
  - report_cache_writes_total: Documents persisted to the store (counter)
    Labels: kind

Google Analytics Metrics:
  - ga_query_duration_seconds: Data API query latency (histogram)
    Labels: facet
  - ga_query_errors_total: Failed Data API queries (counter)
    Labels: facet
  - ga_rows_returned: Rows returned per query (histogram)
    Labels: facet

Store Metrics:
  - store_operation_duration_seconds: Badger operation latency (histogram)
    Labels: operation, kind
  - store_operation_errors_total: Failed store operations (counter)
    Labels: operation, kind, error_type

Cache Metrics:
  - cache_hits_total / cache_misses_total: Cache efficiency (counters)
    Labels: cache_type
  - cache_entries: Current cached entries (gauge)
  - cache_evictions_total: TTL expiries (counter)

Heartbeat Metrics:
  - heartbeats_received_total: Heartbeat events recorded (counter)
  - heartbeat_buffer_entries: Ring buffer occupancy (gauge)
  - live_visitors: Distinct visitors per sliding window (gauge)
    Labels: window (1m, 5m, 15m)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge, 0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total: Requests by result (counter)
  - circuit_breaker_state_transitions_total: State transitions (counter)

# Usage Example

Recording a report aggregation run:

	start := time.Now()
	doc, err := agg.Fetch(ctx, req)
	metrics.RecordReportFetch(req.Range, time.Since(start), err)

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels use the route pattern, never the raw path
  - Facet labels come from a fixed set of thirteen query names
  - Error types are truncated to 50 characters
  - Project identifiers are never used as labels

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.
*/
package metrics
