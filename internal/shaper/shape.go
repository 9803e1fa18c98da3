// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package shaper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/draycottdigital/pulse/internal/ga"
	"github.com/draycottdigital/pulse/internal/models"
)

// weekdayLabels maps GA4 dayOfWeek values (0=Sunday) to display labels.
var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// realtimeSlots is the fixed length of the realtime minute trend.
const realtimeSlots = 30

// Summary shapes the headline totals row. A missing or short row yields
// zero totals and sentinel ratios, never an error.
func Summary(rows []ga.Row) models.Summary {
	s := models.Summary{
		BounceRate:         "0.0",
		EngagementRate:     "0.0",
		SessionsPerUser:    "0.0",
		EventsPerSession:   "0.0",
		AvgSessionDuration: "0:00",
		AvgEngagementTime:  "0:00",
		ViewsPerSession:    "0.0",
		ScrollRate:         "0.0",
	}

	if len(rows) == 0 || len(rows[0].Mets) < summaryMetricCount {
		return s
	}
	mets := rows[0].Mets

	views := parseInt(mets[sumPageViews])
	sessions := parseInt(mets[sumSessions])
	totalUsers := parseInt(mets[sumTotalUsers])
	events := parseInt(mets[sumEventCount])
	scrolled := parseInt(mets[sumScrolledUsers])
	engagementSecs := parseFloat(mets[sumEngagementDuration])

	s.PageViews = views
	s.Sessions = sessions
	s.NewUsers = parseInt(mets[sumNewUsers])

	// GA reports bounce and engagement rates as fractions of 1.
	s.BounceRate = formatPercentFraction(parseFloat(mets[sumBounceRate]))
	s.EngagementRate = formatPercentFraction(parseFloat(mets[sumEngagementRate]))

	s.SessionsPerUser = formatRatio(float64(sessions), float64(totalUsers))
	s.EventsPerSession = formatRatio(float64(events), float64(sessions))
	s.ViewsPerSession = formatRatio(float64(views), float64(sessions))
	s.ScrollRate = formatRatio(float64(scrolled)*100, float64(totalUsers))

	s.AvgSessionDuration = formatDuration(parseFloat(mets[sumAvgSessionDuration]))
	if totalUsers > 0 {
		s.AvgEngagementTime = formatDuration(engagementSecs / float64(totalUsers))
	}

	return s
}

// TopPages shapes the page breakdown. Percent is each page's share of the
// returned views, rounded to the nearest integer and clamped to [0,100].
func TopPages(rows []ga.Row) []models.PageStat {
	pages := make([]models.PageStat, 0, len(rows))

	var total int64
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		total += parseInt(r.Mets[0])
	}

	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		views := parseInt(r.Mets[0])
		pages = append(pages, models.PageStat{
			Path:    r.Dims[0],
			Views:   views,
			Percent: percentOf(views, total),
		})
	}
	return pages
}

// Referrers shapes the session source breakdown.
func Referrers(rows []ga.Row) []models.ReferrerStat {
	refs := make([]models.ReferrerStat, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		refs = append(refs, models.ReferrerStat{
			Source:   r.Dims[0],
			Sessions: parseInt(r.Mets[0]),
		})
	}
	return refs
}

// LabelBreakdown shapes any single-dimension sessions breakdown
// (devices, operating systems, browsers).
func LabelBreakdown(rows []ga.Row) []models.LabelStat {
	stats := make([]models.LabelStat, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		stats = append(stats, models.LabelStat{
			Label:    r.Dims[0],
			Sessions: parseInt(r.Mets[0]),
		})
	}
	return stats
}

// Countries shapes the active users by country breakdown.
func Countries(rows []ga.Row) []models.CountryStat {
	stats := make([]models.CountryStat, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		stats = append(stats, models.CountryStat{
			Country:     r.Dims[0],
			ActiveUsers: parseInt(r.Mets[0]),
		})
	}
	return stats
}

// Cities shapes the active users by city breakdown.
func Cities(rows []ga.Row) []models.CityStat {
	stats := make([]models.CityStat, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 2 || len(r.Mets) < 1 {
			continue
		}
		stats = append(stats, models.CityStat{
			City:        r.Dims[0],
			Region:      r.Dims[1],
			ActiveUsers: parseInt(r.Mets[0]),
		})
	}
	return stats
}

// Retention shapes the new vs returning split. Unknown dimension values
// are ignored; absent rows leave zero counts.
func Retention(rows []ga.Row) models.Retention {
	var ret models.Retention
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		switch strings.ToLower(r.Dims[0]) {
		case "new":
			ret.New = parseInt(r.Mets[0])
		case "returning":
			ret.Returning = parseInt(r.Mets[0])
		}
	}
	return ret
}

// WeeklyTrend shapes sessions by day of week into exactly seven entries,
// Sunday (0) through Saturday (6). Days absent from the response are
// synthesized with zero sessions.
func WeeklyTrend(rows []ga.Row) []models.WeekdayStat {
	sessions := [7]int64{}
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		day, err := strconv.Atoi(r.Dims[0])
		if err != nil || day < 0 || day > 6 {
			continue
		}
		sessions[day] = parseInt(r.Mets[0])
	}

	trend := make([]models.WeekdayStat, 7)
	for day := 0; day < 7; day++ {
		trend[day] = models.WeekdayStat{
			Day:      day,
			Label:    weekdayLabels[day],
			Sessions: sessions[day],
		}
	}
	return trend
}

// DailyCounts shapes per-day page views. GA dates (YYYYMMDD) are
// normalized to ISO (YYYY-MM-DD); unparseable dates are skipped.
func DailyCounts(rows []ga.Row) []models.DailyCount {
	counts := make([]models.DailyCount, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		day, err := time.Parse("20060102", r.Dims[0])
		if err != nil {
			continue
		}
		counts = append(counts, models.DailyCount{
			Date:  day.Format("2006-01-02"),
			Count: parseInt(r.Mets[0]),
		})
	}
	return counts
}

// RealtimeTrend scatters per-minute actives into a fixed 30-slot window
// indexed by minutesAgo, then reverses it so the result reads oldest to
// newest. Unfilled slots stay zero; out-of-window rows are dropped.
func RealtimeTrend(rows []ga.Row) []models.MinuteStat {
	slots := [realtimeSlots]int64{}
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		minute, err := strconv.Atoi(r.Dims[0])
		if err != nil || minute < 0 || minute >= realtimeSlots {
			continue
		}
		slots[minute] = parseInt(r.Mets[0])
	}

	trend := make([]models.MinuteStat, realtimeSlots)
	for i := 0; i < realtimeSlots; i++ {
		minutesAgo := realtimeSlots - 1 - i
		trend[i] = models.MinuteStat{
			MinutesAgo:  minutesAgo,
			ActiveUsers: slots[minutesAgo],
		}
	}
	return trend
}

// RealtimeTech shapes the realtime device breakdown.
func RealtimeTech(rows []ga.Row) []models.DeviceActive {
	stats := make([]models.DeviceActive, 0, len(rows))
	for _, r := range rows {
		if len(r.Dims) < 1 || len(r.Mets) < 1 {
			continue
		}
		stats = append(stats, models.DeviceActive{
			Device:      r.Dims[0],
			ActiveUsers: parseInt(r.Mets[0]),
		})
	}
	return stats
}

// Realtime assembles the realtime block. Total active users is the sum of
// the device breakdown, which counts each visitor once.
func Realtime(trendRows, techRows []ga.Row) models.Realtime {
	tech := RealtimeTech(techRows)

	var total int64
	for _, d := range tech {
		total += d.ActiveUsers
	}

	return models.Realtime{
		TotalActiveUsers: total,
		MinuteTrend:      RealtimeTrend(trendRows),
		Tech:             tech,
	}
}

// ZeroRealtime returns the degraded realtime block: zero totals, a full
// 30-slot zeroed minute trend, and an empty device list.
func ZeroRealtime() models.Realtime {
	return models.Realtime{
		TotalActiveUsers: 0,
		MinuteTrend:      RealtimeTrend(nil),
		Tech:             []models.DeviceActive{},
	}
}

// parseInt parses a metric value, treating malformed input as zero.
func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some totals come back as floats ("12.0")
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}

// parseFloat parses a metric value, treating malformed input as zero.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatRatio renders num/den with one decimal place, "0.0" when the
// denominator is zero.
func formatRatio(num, den float64) string {
	if den == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", num/den)
}

// formatPercentFraction renders a GA fraction-of-1 rate as a percentage
// with one decimal place.
func formatPercentFraction(frac float64) string {
	return fmt.Sprintf("%.1f", frac*100)
}

// formatDuration renders seconds as M:SS, minutes unpadded, "0:00" for
// zero or negative input.
func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	total := int64(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// percentOf returns part's share of total as an integer percentage,
// rounded to nearest and clamped to [0,100]. Zero total yields 0.
func percentOf(part, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(part) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
