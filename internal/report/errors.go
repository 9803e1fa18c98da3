// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package report

import "errors"

// Sentinel errors returned by the aggregator. The API layer maps them to
// HTTP status codes and machine-readable error codes.
var (
	// ErrProjectNotFound means the requested project id has no record.
	ErrProjectNotFound = errors.New("project not found")

	// ErrPropertyNotConfigured means the project exists but carries no
	// GA property id. User-actionable; no provider calls are made.
	ErrPropertyNotConfigured = errors.New("analytics property not configured")

	// ErrUpstream means a non-realtime provider query failed and the
	// report could not be assembled.
	ErrUpstream = errors.New("upstream analytics provider error")
)
