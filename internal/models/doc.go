// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package models defines the data types shared across Pulse: the report
// document and its facets, projects, heartbeat events and live stats, and
// the standard API response envelope.
package models
