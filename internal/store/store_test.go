// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &models.Project{
		ID:           "acme-co",
		Name:         "Acme Marketing Site",
		ClientID:     "client-42",
		GAPropertyID: "348291057",
	}

	if err := s.PutProject(ctx, project); err != nil {
		t.Fatalf("PutProject() error: %v", err)
	}
	if project.CreatedAt.IsZero() || project.UpdatedAt.IsZero() {
		t.Errorf("timestamps not stamped: %+v", project)
	}

	got, err := s.GetProject(ctx, "acme-co")
	if err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if got.Name != project.Name || got.ClientID != project.ClientID || got.GAPropertyID != project.GAPropertyID {
		t.Errorf("GetProject() = %+v, want %+v", got, project)
	}
}

func TestPutProject_PreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &models.Project{ID: "acme-co", Name: "v1", ClientID: "client-42"}
	if err := s.PutProject(ctx, project); err != nil {
		t.Fatalf("PutProject() error: %v", err)
	}
	created := project.CreatedAt

	time.Sleep(5 * time.Millisecond)
	project.Name = "v2"
	if err := s.PutProject(ctx, project); err != nil {
		t.Fatalf("PutProject() second error: %v", err)
	}

	got, err := s.GetProject(ctx, "acme-co")
	if err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt not advanced: %v", got.UpdatedAt)
	}
	if got.Name != "v2" {
		t.Errorf("Name = %q, want v2", got.Name)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProject(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject() = %v, want ErrNotFound", err)
	}
}

func TestDeleteProject_RemovesReportData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutProject(ctx, &models.Project{ID: "acme-co", Name: "Acme", ClientID: "c"}); err != nil {
		t.Fatalf("PutProject() error: %v", err)
	}
	doc := &models.ReportDocument{DateRange: "7d"}
	if err := s.MergeReport(ctx, "acme-co", doc); err != nil {
		t.Fatalf("MergeReport() error: %v", err)
	}
	if err := s.MergeDailySeries(ctx, "acme-co", []models.DailyCount{{Date: "2026-08-29", Count: 4}}); err != nil {
		t.Fatalf("MergeDailySeries() error: %v", err)
	}

	if err := s.DeleteProject(ctx, "acme-co"); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}

	if _, err := s.GetProject(ctx, "acme-co"); !errors.Is(err, ErrNotFound) {
		t.Errorf("project still present after delete: %v", err)
	}
	if _, err := s.GetReport(ctx, "acme-co"); !errors.Is(err, ErrNotFound) {
		t.Errorf("report still present after delete: %v", err)
	}
	if _, err := s.GetDailySeries(ctx, "acme-co"); !errors.Is(err, ErrNotFound) {
		t.Errorf("series still present after delete: %v", err)
	}
}

func TestMergeReport_OverlaysNonEmptyFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.ReportDocument{
		Summary:  models.Summary{PageViews: 100, Sessions: 40, BounceRate: "45.0"},
		TopPages: []models.PageStat{{Path: "/", Views: 60, Percent: 60}},
		WeeklyTrend: []models.WeekdayStat{
			{Day: 0, Label: "Sun", Sessions: 5},
		},
		DateRange:   "7d",
		LastUpdated: time.Now().UTC(),
	}
	if err := s.MergeReport(ctx, "acme-co", first); err != nil {
		t.Fatalf("MergeReport() first error: %v", err)
	}

	// Second write carries a new summary but empty lists; the stored
	// top pages and weekly trend must survive.
	second := &models.ReportDocument{
		Summary:     models.Summary{PageViews: 120, Sessions: 50, BounceRate: "42.0"},
		TopPages:    []models.PageStat{},
		WeeklyTrend: []models.WeekdayStat{},
		DateRange:   "7d",
		LastUpdated: time.Now().UTC(),
	}
	if err := s.MergeReport(ctx, "acme-co", second); err != nil {
		t.Fatalf("MergeReport() second error: %v", err)
	}

	got, err := s.GetReport(ctx, "acme-co")
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if got.Summary.PageViews != 120 {
		t.Errorf("Summary.PageViews = %d, want updated 120", got.Summary.PageViews)
	}
	if len(got.TopPages) != 1 || got.TopPages[0].Path != "/" {
		t.Errorf("TopPages clobbered by empty write: %+v", got.TopPages)
	}
	if len(got.WeeklyTrend) != 1 || got.WeeklyTrend[0].Sessions != 5 {
		t.Errorf("WeeklyTrend clobbered by empty write: %+v", got.WeeklyTrend)
	}
}

func TestMergeDailySeries_UnionByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MergeDailySeries(ctx, "acme-co", []models.DailyCount{
		{Date: "2026-08-27", Count: 10},
		{Date: "2026-08-28", Count: 20},
	}); err != nil {
		t.Fatalf("MergeDailySeries() first error: %v", err)
	}

	// Overlapping write: 08-28 is revised, 08-29 added.
	if err := s.MergeDailySeries(ctx, "acme-co", []models.DailyCount{
		{Date: "2026-08-28", Count: 25},
		{Date: "2026-08-29", Count: 30},
	}); err != nil {
		t.Fatalf("MergeDailySeries() second error: %v", err)
	}

	series, err := s.GetDailySeries(ctx, "acme-co")
	if err != nil {
		t.Fatalf("GetDailySeries() error: %v", err)
	}

	want := []models.DailyCount{
		{Date: "2026-08-27", Count: 10},
		{Date: "2026-08-28", Count: 25},
		{Date: "2026-08-29", Count: 30},
	}
	if len(series.Counts) != len(want) {
		t.Fatalf("got %d counts, want %d: %+v", len(series.Counts), len(want), series.Counts)
	}
	for i, w := range want {
		if series.Counts[i] != w {
			t.Errorf("Counts[%d] = %+v, want %+v", i, series.Counts[i], w)
		}
	}
	if series.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestMergeDailySeries_TrimsToMaxDays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two merges that together exceed the bound; only the most recent
	// maxSeriesDays dates should survive.
	first := make([]models.DailyCount, 0, maxSeriesDays)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxSeriesDays; i++ {
		first = append(first, models.DailyCount{
			Date:  start.AddDate(0, 0, i).Format("2006-01-02"),
			Count: int64(i),
		})
	}
	if err := s.MergeDailySeries(ctx, "acme-co", first); err != nil {
		t.Fatalf("MergeDailySeries() first error: %v", err)
	}

	extra := []models.DailyCount{
		{Date: start.AddDate(0, 0, maxSeriesDays).Format("2006-01-02"), Count: 1000},
		{Date: start.AddDate(0, 0, maxSeriesDays+1).Format("2006-01-02"), Count: 1001},
	}
	if err := s.MergeDailySeries(ctx, "acme-co", extra); err != nil {
		t.Fatalf("MergeDailySeries() second error: %v", err)
	}

	series, err := s.GetDailySeries(ctx, "acme-co")
	if err != nil {
		t.Fatalf("GetDailySeries() error: %v", err)
	}

	if len(series.Counts) != maxSeriesDays {
		t.Fatalf("got %d counts, want %d", len(series.Counts), maxSeriesDays)
	}
	if got := series.Counts[0].Date; got != "2025-01-03" {
		t.Errorf("oldest surviving date = %q, want 2025-01-03", got)
	}
	last := series.Counts[len(series.Counts)-1]
	if last.Date != extra[1].Date || last.Count != 1001 {
		t.Errorf("newest entry = %+v, want {%s 1001}", last, extra[1].Date)
	}
}

func TestIsEmptyJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"null", true},
		{`""`, true},
		{"[]", true},
		{"{}", true},
		{"0", false},
		{`"7d"`, false},
		{`[{"path":"/"}]`, false},
		{`{"new":0,"returning":0}`, false},
	}
	for _, tt := range tests {
		if got := isEmptyJSON([]byte(tt.raw)); got != tt.want {
			t.Errorf("isEmptyJSON(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
