// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package shaper defines the report facets and the pure normalizers that
// turn raw Data API rows into the report document's typed blocks.
//
// A facet pairs a query specification (dimensions, metrics, ordering, limit)
// with a shaping function. Shaping is stateless and side-effect free: rows
// in, typed block out. Provider ordering is preserved; top-N lists are never
// re-sorted here or downstream.
package shaper

import "github.com/draycottdigital/pulse/internal/ga"

// Facet names. Used as metric labels and for logging; keep the set fixed.
const (
	FacetSummary      = "summary"
	FacetTopPages     = "top_pages"
	FacetReferrers    = "referrers"
	FacetDevices      = "devices"
	FacetOS           = "os"
	FacetBrowsers     = "browsers"
	FacetCountries    = "countries"
	FacetCities       = "cities"
	FacetRetention    = "retention"
	FacetWeeklyTrend  = "weekly_trend"
	FacetDailyCounts  = "daily_counts"
	FacetRealtime     = "realtime"
	FacetRealtimeTech = "realtime_tech"
)

// topListLimit bounds the breakdown lists (pages, referrers, browsers, ...).
const topListLimit = 10

// summary metric positions, matching SummarySpec().Metrics order.
const (
	sumPageViews = iota
	sumSessions
	sumBounceRate
	sumNewUsers
	sumEngagementRate
	sumAvgSessionDuration
	sumEventCount
	sumTotalUsers
	sumEngagementDuration
	sumScrolledUsers
	summaryMetricCount
)

// SummarySpec queries the headline totals and the inputs for the derived
// per-user and per-session ratios.
func SummarySpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet: FacetSummary,
		Metrics: []string{
			"screenPageViews",
			"sessions",
			"bounceRate",
			"newUsers",
			"engagementRate",
			"averageSessionDuration",
			"eventCount",
			"totalUsers",
			"userEngagementDuration",
			"scrolledUsers",
		},
	}
}

// TopPagesSpec queries the most viewed paths.
func TopPagesSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetTopPages,
		Dimensions: []string{"pagePath"},
		Metrics:    []string{"screenPageViews"},
		OrderBy:    &ga.Order{Metric: "screenPageViews", Desc: true},
		Limit:      topListLimit,
	}
}

// ReferrersSpec queries session sources.
func ReferrersSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetReferrers,
		Dimensions: []string{"sessionSource"},
		Metrics:    []string{"sessions"},
		OrderBy:    &ga.Order{Metric: "sessions", Desc: true},
		Limit:      topListLimit,
	}
}

// DevicesSpec queries the device category breakdown.
func DevicesSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetDevices,
		Dimensions: []string{"deviceCategory"},
		Metrics:    []string{"sessions"},
		OrderBy:    &ga.Order{Metric: "sessions", Desc: true},
	}
}

// OSSpec queries the operating system breakdown.
func OSSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetOS,
		Dimensions: []string{"operatingSystem"},
		Metrics:    []string{"sessions"},
		OrderBy:    &ga.Order{Metric: "sessions", Desc: true},
		Limit:      topListLimit,
	}
}

// BrowsersSpec queries the browser breakdown.
func BrowsersSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetBrowsers,
		Dimensions: []string{"browser"},
		Metrics:    []string{"sessions"},
		OrderBy:    &ga.Order{Metric: "sessions", Desc: true},
		Limit:      topListLimit,
	}
}

// CountriesSpec queries active users by country.
func CountriesSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetCountries,
		Dimensions: []string{"country"},
		Metrics:    []string{"activeUsers"},
		OrderBy:    &ga.Order{Metric: "activeUsers", Desc: true},
		Limit:      topListLimit,
	}
}

// CitiesSpec queries active users by city and region.
func CitiesSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetCities,
		Dimensions: []string{"city", "region"},
		Metrics:    []string{"activeUsers"},
		OrderBy:    &ga.Order{Metric: "activeUsers", Desc: true},
		Limit:      topListLimit,
	}
}

// RetentionSpec queries the new vs returning visitor split.
func RetentionSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetRetention,
		Dimensions: []string{"newVsReturning"},
		Metrics:    []string{"activeUsers"},
	}
}

// WeeklyTrendSpec queries sessions by day of week.
// GA4 reports dayOfWeek as "0" (Sunday) through "6" (Saturday).
func WeeklyTrendSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetWeeklyTrend,
		Dimensions: []string{"dayOfWeek"},
		Metrics:    []string{"sessions"},
		OrderBy:    &ga.Order{Dimension: "dayOfWeek"},
	}
}

// DailyCountsSpec queries page views per calendar day, oldest first.
func DailyCountsSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetDailyCounts,
		Dimensions: []string{"date"},
		Metrics:    []string{"screenPageViews"},
		OrderBy:    &ga.Order{Dimension: "date"},
	}
}

// RealtimeSpec queries per-minute active users over the last 30 minutes.
func RealtimeSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetRealtime,
		Dimensions: []string{"minutesAgo"},
		Metrics:    []string{"activeUsers"},
	}
}

// RealtimeTechSpec queries active users by device category, realtime.
func RealtimeTechSpec() ga.QuerySpec {
	return ga.QuerySpec{
		Facet:      FacetRealtimeTech,
		Dimensions: []string{"deviceCategory"},
		Metrics:    []string{"activeUsers"},
		OrderBy:    &ga.Order{Metric: "activeUsers", Desc: true},
	}
}
