// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package models

import "time"

// Range labels accepted by the reports API. Anything else falls back to
// RangeDefault when resolving the lookback window.
const (
	Range7d  = "7d"
	Range28d = "28d"
	Range90d = "90d"

	// RangeDefault is the canonical shortest range. It is the only range
	// whose daily series is persisted (see store.MergeDailySeries).
	RangeDefault = Range7d
)

// LookbackDays maps a range label to its provider lookback window in days.
// Unrecognized labels map to the default 7-day window.
func LookbackDays(rangeLabel string) int {
	switch rangeLabel {
	case Range28d:
		return 28
	case Range90d:
		return 90
	default:
		return 7
	}
}

// NormalizeRange returns the canonical range label for a raw query value.
func NormalizeRange(raw string) string {
	switch raw {
	case Range7d, Range28d, Range90d:
		return raw
	default:
		return RangeDefault
	}
}

// ReportRequest identifies one report aggregation.
type ReportRequest struct {
	ProjectID string `json:"project_id" validate:"required,max=128"`
	Range     string `json:"range"`
}

// Summary holds the derived scalar metrics of a report. All ratio fields are
// zero-guarded at shaping time: a zero denominator yields the documented
// sentinel ("0.0", 0 or "0:00"), never NaN or Inf.
type Summary struct {
	PageViews          int64  `json:"page_views"`
	Sessions           int64  `json:"sessions"`
	BounceRate         string `json:"bounce_rate"`
	NewUsers           int64  `json:"new_users"`
	EngagementRate     string `json:"engagement_rate"`
	SessionsPerUser    string `json:"sessions_per_user"`
	EventsPerSession   string `json:"events_per_session"`
	AvgSessionDuration string `json:"avg_session_duration"`
	AvgEngagementTime  string `json:"avg_engagement_time"`
	ViewsPerSession    string `json:"views_per_session"`
	ScrollRate         string `json:"scroll_rate"`
}

// PageStat is one entry of the top-pages ranking. Percent is the share of
// total page views, rounded to the nearest integer and clamped to [0,100].
type PageStat struct {
	Path    string `json:"path"`
	Views   int64  `json:"views"`
	Percent int    `json:"percent"`
}

// ReferrerStat is one entry of the top-referrers ranking.
type ReferrerStat struct {
	Source   string `json:"source"`
	Sessions int64  `json:"sessions"`
}

// LabelStat is a generic (label, sessions) breakdown entry used for the
// device, operating system and browser facets.
type LabelStat struct {
	Label    string `json:"label"`
	Sessions int64  `json:"sessions"`
}

// CountryStat is one entry of the geographic breakdown.
type CountryStat struct {
	Country     string `json:"country"`
	ActiveUsers int64  `json:"active_users"`
}

// CityStat is one entry of the city breakdown.
type CityStat struct {
	City        string `json:"city"`
	Region      string `json:"region"`
	ActiveUsers int64  `json:"active_users"`
}

// Retention splits active users into new and returning visitors.
type Retention struct {
	New       int64 `json:"new"`
	Returning int64 `json:"returning"`
}

// WeekdayStat is one of the exactly seven weekly-trend entries,
// Sunday (0) through Saturday (6).
type WeekdayStat struct {
	Day      int    `json:"day"`
	Label    string `json:"label"`
	Sessions int64  `json:"sessions"`
}

// MinuteStat is one slot of the realtime minute trend.
type MinuteStat struct {
	MinutesAgo  int   `json:"minutes_ago"`
	ActiveUsers int64 `json:"active_users"`
}

// DeviceActive is one entry of the realtime tech breakdown.
type DeviceActive struct {
	Device      string `json:"device"`
	ActiveUsers int64  `json:"active_users"`
}

// Realtime is the realtime block of a report. The trend always has exactly
// 30 entries ordered oldest to newest. When the realtime queries fail the
// whole block degrades to its zero value instead of failing the report.
type Realtime struct {
	TotalActiveUsers int64          `json:"total_active_users"`
	MinuteTrend      []MinuteStat   `json:"minute_trend"`
	Tech             []DeviceActive `json:"tech"`
}

// DailyCount is one (date, count) pair of the daily page-view series.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// DailyCountsSeries is the bounded daily series kept alongside the report
// document. It is merge-written only for the canonical 7d range so a coarser
// wide-range fetch never clobbers the fine-grained series.
type DailyCountsSeries struct {
	Counts    []DailyCount `json:"counts"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ReportDocument is the canonical aggregate produced by one report fetch.
// Every list field is non-nil after shaping so consumers never branch on
// absence.
type ReportDocument struct {
	Summary     Summary        `json:"summary"`
	TopPages    []PageStat     `json:"top_pages"`
	Referrers   []ReferrerStat `json:"referrers"`
	Devices     []LabelStat    `json:"devices"`
	OS          []LabelStat    `json:"os"`
	Browsers    []LabelStat    `json:"browsers"`
	Countries   []CountryStat  `json:"countries"`
	Cities      []CityStat     `json:"cities"`
	Retention   Retention      `json:"retention"`
	WeeklyTrend []WeekdayStat  `json:"weekly_trend"`
	Realtime    Realtime       `json:"realtime"`
	DailyCounts []DailyCount   `json:"daily_counts"`
	LastUpdated time.Time      `json:"last_updated"`
	DateRange   string         `json:"date_range"`
}
