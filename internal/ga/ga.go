// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package ga provides a thin, typed client for the Google Analytics Data API.
//
// The package exposes a Runner interface so the aggregation layer can fan out
// facet queries without depending on the concrete API client. Production code
// wires Client (optionally wrapped in a circuit breaker); tests substitute a
// fake Runner.
package ga

import "context"

// QuerySpec describes a single Data API query.
// Dimensions and Metrics use the GA4 API names (pagePath, sessions, ...).
type QuerySpec struct {
	Facet      string // Stable query name, used for logging and metrics labels
	Dimensions []string
	Metrics    []string
	OrderBy    *Order // Optional; provider order is preserved when nil
	Limit      int64  // 0 means the API default
}

// Order describes a single ordering clause. Exactly one of Metric or
// Dimension must be set.
type Order struct {
	Metric    string
	Dimension string
	Desc      bool
}

// Row is one result row. Dims and Mets follow the request order and are
// always non-nil, possibly empty.
type Row struct {
	Dims []string
	Mets []string
}

// Runner executes Data API queries against a single GA4 property.
type Runner interface {
	// RunReport executes a historical report over the trailing lookbackDays
	// window ending today.
	RunReport(ctx context.Context, propertyID string, lookbackDays int, spec QuerySpec) ([]Row, error)

	// RunRealtimeReport executes a realtime report over the last 30 minutes.
	RunRealtimeReport(ctx context.Context, propertyID string, spec QuerySpec) ([]Row, error)
}
