// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package shaper

import (
	"testing"

	"github.com/draycottdigital/pulse/internal/ga"
)

func metricsRow(mets ...string) ga.Row {
	return ga.Row{Dims: []string{}, Mets: mets}
}

func dimRow(dim string, met string) ga.Row {
	return ga.Row{Dims: []string{dim}, Mets: []string{met}}
}

func TestSummary_ZeroRows(t *testing.T) {
	s := Summary(nil)

	if s.PageViews != 0 || s.Sessions != 0 || s.NewUsers != 0 {
		t.Errorf("totals should be zero, got %+v", s)
	}
	if s.BounceRate != "0.0" {
		t.Errorf("BounceRate = %q, want 0.0", s.BounceRate)
	}
	if s.SessionsPerUser != "0.0" || s.EventsPerSession != "0.0" || s.ViewsPerSession != "0.0" || s.ScrollRate != "0.0" {
		t.Errorf("ratio sentinels missing: %+v", s)
	}
	if s.AvgSessionDuration != "0:00" || s.AvgEngagementTime != "0:00" {
		t.Errorf("duration sentinels missing: %+v", s)
	}
}

func TestSummary_ShortRow(t *testing.T) {
	// Row with fewer metrics than requested must not be indexed blindly.
	s := Summary([]ga.Row{metricsRow("100", "50")})

	if s.PageViews != 0 {
		t.Errorf("PageViews = %d, want 0 for short row", s.PageViews)
	}
	if s.BounceRate != "0.0" {
		t.Errorf("BounceRate = %q, want sentinel", s.BounceRate)
	}
}

func TestSummary_DerivedRatios(t *testing.T) {
	// views, sessions, bounce, new, engagement, avgDur, events, users, engDur, scrolled
	row := metricsRow("1200", "300", "0.45", "80", "0.55", "125", "900", "200", "24000", "150")
	s := Summary([]ga.Row{row})

	if s.PageViews != 1200 || s.Sessions != 300 || s.NewUsers != 80 {
		t.Errorf("totals = %+v", s)
	}
	if s.BounceRate != "45.0" {
		t.Errorf("BounceRate = %q, want 45.0", s.BounceRate)
	}
	if s.EngagementRate != "55.0" {
		t.Errorf("EngagementRate = %q, want 55.0", s.EngagementRate)
	}
	if s.SessionsPerUser != "1.5" {
		t.Errorf("SessionsPerUser = %q, want 1.5", s.SessionsPerUser)
	}
	if s.EventsPerSession != "3.0" {
		t.Errorf("EventsPerSession = %q, want 3.0", s.EventsPerSession)
	}
	if s.ViewsPerSession != "4.0" {
		t.Errorf("ViewsPerSession = %q, want 4.0", s.ViewsPerSession)
	}
	if s.ScrollRate != "75.0" {
		t.Errorf("ScrollRate = %q, want 75.0", s.ScrollRate)
	}
	// 125s -> 2:05, 24000/200 = 120s -> 2:00
	if s.AvgSessionDuration != "2:05" {
		t.Errorf("AvgSessionDuration = %q, want 2:05", s.AvgSessionDuration)
	}
	if s.AvgEngagementTime != "2:00" {
		t.Errorf("AvgEngagementTime = %q, want 2:00", s.AvgEngagementTime)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{61, "1:01"},
		{125, "2:05"},
		{3599, "59:59"},
		{3600, "60:00"}, // minutes are unpadded and uncapped
		{90.4, "1:30"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTopPages_PercentRoundingAndClamp(t *testing.T) {
	rows := []ga.Row{
		dimRow("/", "2"),
		dimRow("/about", "1"),
	}
	pages := TopPages(rows)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	// 2/3 = 66.67 rounds to 67, 1/3 = 33.33 rounds to 33
	if pages[0].Percent != 67 {
		t.Errorf("pages[0].Percent = %d, want 67", pages[0].Percent)
	}
	if pages[1].Percent != 33 {
		t.Errorf("pages[1].Percent = %d, want 33", pages[1].Percent)
	}
	// Provider order is preserved
	if pages[0].Path != "/" || pages[1].Path != "/about" {
		t.Errorf("provider order not preserved: %+v", pages)
	}
}

func TestTopPages_ZeroTotal(t *testing.T) {
	pages := TopPages([]ga.Row{dimRow("/", "0")})
	if len(pages) != 1 || pages[0].Percent != 0 {
		t.Errorf("zero total should yield 0 percent, got %+v", pages)
	}
}

func TestTopPages_EmptyIsNonNil(t *testing.T) {
	pages := TopPages(nil)
	if pages == nil {
		t.Fatal("TopPages(nil) returned nil slice")
	}
	if len(pages) != 0 {
		t.Errorf("got %d pages, want 0", len(pages))
	}
}

func TestPercentOf_Clamp(t *testing.T) {
	if got := percentOf(200, 100); got != 100 {
		t.Errorf("percentOf(200, 100) = %d, want clamped 100", got)
	}
	if got := percentOf(0, 0); got != 0 {
		t.Errorf("percentOf(0, 0) = %d, want 0", got)
	}
}

func TestWeeklyTrend_SynthesizesMissingDays(t *testing.T) {
	// Only Tuesday (2) and Saturday (6) present
	rows := []ga.Row{
		dimRow("2", "40"),
		dimRow("6", "15"),
	}
	trend := WeeklyTrend(rows)

	if len(trend) != 7 {
		t.Fatalf("got %d entries, want exactly 7", len(trend))
	}
	wantLabels := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for i, w := range trend {
		if w.Day != i {
			t.Errorf("trend[%d].Day = %d, want %d", i, w.Day, i)
		}
		if w.Label != wantLabels[i] {
			t.Errorf("trend[%d].Label = %q, want %q", i, w.Label, wantLabels[i])
		}
	}
	if trend[2].Sessions != 40 || trend[6].Sessions != 15 {
		t.Errorf("present days wrong: %+v", trend)
	}
	for _, i := range []int{0, 1, 3, 4, 5} {
		if trend[i].Sessions != 0 {
			t.Errorf("trend[%d].Sessions = %d, want synthesized 0", i, trend[i].Sessions)
		}
	}
}

func TestWeeklyTrend_IgnoresOutOfRangeDays(t *testing.T) {
	rows := []ga.Row{
		dimRow("7", "99"),
		dimRow("-1", "99"),
		dimRow("abc", "99"),
	}
	trend := WeeklyTrend(rows)
	for _, w := range trend {
		if w.Sessions != 0 {
			t.Errorf("out-of-range day leaked into trend: %+v", w)
		}
	}
}

func TestRealtimeTrend_ScatterAndReverse(t *testing.T) {
	// Rows arrive in arbitrary order with gaps
	rows := []ga.Row{
		dimRow("0", "5"),
		dimRow("29", "2"),
		dimRow("10", "7"),
		dimRow("30", "99"), // out of window, dropped
	}
	trend := RealtimeTrend(rows)

	if len(trend) != 30 {
		t.Fatalf("got %d slots, want exactly 30", len(trend))
	}
	// Oldest first: index 0 is 29 minutes ago, index 29 is now
	if trend[0].MinutesAgo != 29 || trend[0].ActiveUsers != 2 {
		t.Errorf("trend[0] = %+v, want minutesAgo 29 with 2 active", trend[0])
	}
	if trend[29].MinutesAgo != 0 || trend[29].ActiveUsers != 5 {
		t.Errorf("trend[29] = %+v, want minutesAgo 0 with 5 active", trend[29])
	}
	if trend[19].MinutesAgo != 10 || trend[19].ActiveUsers != 7 {
		t.Errorf("trend[19] = %+v, want minutesAgo 10 with 7 active", trend[19])
	}
	// Unfilled slots are zero
	if trend[1].ActiveUsers != 0 {
		t.Errorf("trend[1].ActiveUsers = %d, want 0", trend[1].ActiveUsers)
	}
}

func TestRealtime_TotalFromTech(t *testing.T) {
	tech := []ga.Row{
		dimRow("desktop", "12"),
		dimRow("mobile", "8"),
	}
	rt := Realtime(nil, tech)

	if rt.TotalActiveUsers != 20 {
		t.Errorf("TotalActiveUsers = %d, want 20", rt.TotalActiveUsers)
	}
	if len(rt.MinuteTrend) != 30 {
		t.Errorf("MinuteTrend length = %d, want 30", len(rt.MinuteTrend))
	}
	if len(rt.Tech) != 2 || rt.Tech[0].Device != "desktop" {
		t.Errorf("Tech = %+v", rt.Tech)
	}
}

func TestZeroRealtime(t *testing.T) {
	rt := ZeroRealtime()

	if rt.TotalActiveUsers != 0 {
		t.Errorf("TotalActiveUsers = %d, want 0", rt.TotalActiveUsers)
	}
	if len(rt.MinuteTrend) != 30 {
		t.Fatalf("MinuteTrend length = %d, want 30", len(rt.MinuteTrend))
	}
	for _, m := range rt.MinuteTrend {
		if m.ActiveUsers != 0 {
			t.Errorf("degraded trend has non-zero slot: %+v", m)
		}
	}
	if rt.Tech == nil || len(rt.Tech) != 0 {
		t.Errorf("Tech should be empty non-nil, got %#v", rt.Tech)
	}
}

func TestRetention(t *testing.T) {
	rows := []ga.Row{
		dimRow("new", "120"),
		dimRow("returning", "45"),
		dimRow("(not set)", "3"),
	}
	ret := Retention(rows)

	if ret.New != 120 {
		t.Errorf("New = %d, want 120", ret.New)
	}
	if ret.Returning != 45 {
		t.Errorf("Returning = %d, want 45", ret.Returning)
	}
}

func TestDailyCounts_DateNormalization(t *testing.T) {
	rows := []ga.Row{
		dimRow("20260815", "30"),
		dimRow("20260816", "42"),
		dimRow("not-a-date", "9"),
	}
	counts := DailyCounts(rows)

	if len(counts) != 2 {
		t.Fatalf("got %d counts, want 2", len(counts))
	}
	if counts[0].Date != "2026-08-15" || counts[0].Count != 30 {
		t.Errorf("counts[0] = %+v", counts[0])
	}
	if counts[1].Date != "2026-08-16" || counts[1].Count != 42 {
		t.Errorf("counts[1] = %+v", counts[1])
	}
}

func TestCities_RequiresBothDimensions(t *testing.T) {
	rows := []ga.Row{
		{Dims: []string{"Leeds", "England"}, Mets: []string{"25"}},
		{Dims: []string{"Lonely"}, Mets: []string{"9"}}, // short row skipped
	}
	cities := Cities(rows)

	if len(cities) != 1 {
		t.Fatalf("got %d cities, want 1", len(cities))
	}
	if cities[0].City != "Leeds" || cities[0].Region != "England" || cities[0].ActiveUsers != 25 {
		t.Errorf("cities[0] = %+v", cities[0])
	}
}

func TestParseInt_FloatFallback(t *testing.T) {
	if got := parseInt("12.0"); got != 12 {
		t.Errorf("parseInt(12.0) = %d, want 12", got)
	}
	if got := parseInt("garbage"); got != 0 {
		t.Errorf("parseInt(garbage) = %d, want 0", got)
	}
}

func TestFacetSpecs_Limits(t *testing.T) {
	for _, spec := range []ga.QuerySpec{
		TopPagesSpec(), ReferrersSpec(), OSSpec(), BrowsersSpec(), CountriesSpec(), CitiesSpec(),
	} {
		if spec.Limit != topListLimit {
			t.Errorf("%s limit = %d, want %d", spec.Facet, spec.Limit, topListLimit)
		}
		if spec.OrderBy == nil || !spec.OrderBy.Desc {
			t.Errorf("%s should order descending by metric", spec.Facet)
		}
	}
}
