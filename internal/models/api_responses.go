// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package models

import "time"

// APIResponse is the standardized response wrapper used by every HTTP
// endpoint. Status is "success" or "error"; Error is populated only for the
// latter.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a structured error payload.
//
// Error codes used by Pulse:
//   - VALIDATION_ERROR: invalid input parameters
//   - AUTHENTICATION_ERROR: missing or invalid credentials
//   - NOT_FOUND: resource does not exist
//   - CONFIGURATION_ERROR: project misconfigured (user-actionable)
//   - UPSTREAM_ERROR: analytics provider query failed
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ReportResponse is the payload of a successful report fetch.
type ReportResponse struct {
	AnalyticsDoc *ReportDocument `json:"analytics_doc"`
}

// CachedReportResponse is the payload of the cached-report read path.
type CachedReportResponse struct {
	AnalyticsDoc *ReportDocument    `json:"analytics_doc"`
	DailySeries  *DailyCountsSeries `json:"daily_series,omitempty"`
}
