// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package models

// HeartbeatEvent is one page-view beacon. Events live only in the in-memory
// heartbeat ring buffer; they are never persisted.
type HeartbeatEvent struct {
	Path          string `json:"path"`
	UserAgent     string `json:"user_agent"`
	RemoteAddress string `json:"remote_address"`
	Timestamp     int64  `json:"timestamp"` // epoch milliseconds
}

// ActiveCounts holds distinct-address visitor counts over the three rolling
// windows. Distinct addresses approximate concurrent visitors better than raw
// hit counts, which a single fast-clicking visitor would inflate.
type ActiveCounts struct {
	M1  int `json:"m1"`
	M5  int `json:"m5"`
	M15 int `json:"m15"`
}

// PathCount is one entry of the live top-path ranking.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// LiveStats is an on-demand snapshot of the heartbeat store.
type LiveStats struct {
	Active     ActiveCounts     `json:"active"`
	PageCounts []PathCount      `json:"page_counts"`
	Recent     []HeartbeatEvent `json:"recent"`
}
