// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package models

import "time"

// Project is one client site tracked by the portal. Projects are referenced
// by the aggregation core but owned by the portal admin, who registers them
// via the projects API.
//
// GAPropertyID may legitimately be empty while a site is being onboarded;
// a report request against such a project is a configuration error surfaced
// to the user, not a retryable fault.
type Project struct {
	ID           string    `json:"id" validate:"required,max=128"`
	Name         string    `json:"name" validate:"max=256"`
	ClientID     string    `json:"client_id" validate:"required,max=128"`
	GAPropertyID string    `json:"ga_property_id" validate:"omitempty,numeric,max=32"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
