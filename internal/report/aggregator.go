// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package report assembles analytics report documents. One Fetch fans out
// every facet query to the Data API concurrently, shapes the rows, merges
// them into a single document, and persists the canonical-range result.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/draycottdigital/pulse/internal/ga"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/models"
	"github.com/draycottdigital/pulse/internal/shaper"
	"github.com/draycottdigital/pulse/internal/store"
)

// Aggregator fetches and assembles report documents.
type Aggregator struct {
	runner ga.Runner
	store  *store.Store
}

// NewAggregator wires the aggregator to its query runner and document store.
func NewAggregator(runner ga.Runner, st *store.Store) *Aggregator {
	return &Aggregator{runner: runner, store: st}
}

// Fetch builds the full report document for a request. The caller is
// assumed authorized; the handler layer runs the access guard first.
//
// The realtime facets degrade to a zeroed block on failure. Any other
// facet failure aborts the whole fetch with ErrUpstream: a report with a
// silently missing historical block would be worse than an error.
//
// Iff the (normalized) range is 7d, the document and its daily counts are
// merge-written to the store; wider ranges are computed and returned
// without touching the cache. Cache write failures are logged, not
// propagated: the fresh document is still good.
func (a *Aggregator) Fetch(ctx context.Context, req models.ReportRequest) (*models.ReportDocument, error) {
	rangeLabel := models.NormalizeRange(req.Range)
	start := time.Now()

	doc, err := a.fetch(ctx, req.ProjectID, rangeLabel)
	metrics.RecordReportFetch(rangeLabel, time.Since(start), err)
	return doc, err
}

func (a *Aggregator) fetch(ctx context.Context, projectID, rangeLabel string) (*models.ReportDocument, error) {
	days := models.LookbackDays(rangeLabel)

	project, err := a.store.GetProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}
	if project.GAPropertyID == "" {
		return nil, ErrPropertyNotConfigured
	}
	property := project.GAPropertyID

	var (
		summaryRows   []ga.Row
		topPagesRows  []ga.Row
		referrersRows []ga.Row
		devicesRows   []ga.Row
		osRows        []ga.Row
		browsersRows  []ga.Row
		countriesRows []ga.Row
		citiesRows    []ga.Row
		retentionRows []ga.Row
		weeklyRows    []ga.Row
		dailyRows     []ga.Row

		rtTrendRows []ga.Row
		rtTechRows  []ga.Row
		rtTrendErr  error
		rtTechErr   error
	)

	g, gctx := errgroup.WithContext(ctx)

	run := func(spec ga.QuerySpec, dst *[]ga.Row) func() error {
		return func() error {
			rows, err := a.runner.RunReport(gctx, property, days, spec)
			if err != nil {
				return fmt.Errorf("%s: %w", spec.Facet, err)
			}
			*dst = rows
			return nil
		}
	}

	g.Go(run(shaper.SummarySpec(), &summaryRows))
	g.Go(run(shaper.TopPagesSpec(), &topPagesRows))
	g.Go(run(shaper.ReferrersSpec(), &referrersRows))
	g.Go(run(shaper.DevicesSpec(), &devicesRows))
	g.Go(run(shaper.OSSpec(), &osRows))
	g.Go(run(shaper.BrowsersSpec(), &browsersRows))
	g.Go(run(shaper.CountriesSpec(), &countriesRows))
	g.Go(run(shaper.CitiesSpec(), &citiesRows))
	g.Go(run(shaper.RetentionSpec(), &retentionRows))
	g.Go(run(shaper.WeeklyTrendSpec(), &weeklyRows))
	g.Go(run(shaper.DailyCountsSpec(), &dailyRows))

	// Realtime family: failures degrade, never abort. Each goroutine
	// writes only its own variables.
	g.Go(func() error {
		rtTrendRows, rtTrendErr = a.runner.RunRealtimeReport(gctx, property, shaper.RealtimeSpec())
		return nil
	})
	g.Go(func() error {
		rtTechRows, rtTechErr = a.runner.RunRealtimeReport(gctx, property, shaper.RealtimeTechSpec())
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("project_id", projectID).Str("range", rangeLabel).Msg("report facet query failed")
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	var realtime models.Realtime
	if rtTrendErr != nil || rtTechErr != nil {
		logging.Ctx(ctx).Warn().
			AnErr("trend_err", rtTrendErr).
			AnErr("tech_err", rtTechErr).
			Str("project_id", projectID).
			Msg("realtime queries failed, serving zeroed realtime block")
		metrics.ReportRealtimeDegraded.Inc()
		realtime = shaper.ZeroRealtime()
	} else {
		realtime = shaper.Realtime(rtTrendRows, rtTechRows)
	}

	doc := &models.ReportDocument{
		Summary:     shaper.Summary(summaryRows),
		TopPages:    shaper.TopPages(topPagesRows),
		Referrers:   shaper.Referrers(referrersRows),
		Devices:     shaper.LabelBreakdown(devicesRows),
		OS:          shaper.LabelBreakdown(osRows),
		Browsers:    shaper.LabelBreakdown(browsersRows),
		Countries:   shaper.Countries(countriesRows),
		Cities:      shaper.Cities(citiesRows),
		Retention:   shaper.Retention(retentionRows),
		WeeklyTrend: shaper.WeeklyTrend(weeklyRows),
		Realtime:    realtime,
		DailyCounts: shaper.DailyCounts(dailyRows),
		LastUpdated: time.Now().UTC(),
		DateRange:   rangeLabel,
	}

	if rangeLabel == models.Range7d {
		if err := a.store.MergeReport(ctx, projectID, doc); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("project_id", projectID).Msg("failed to persist report document")
		}
		if err := a.store.MergeDailySeries(ctx, projectID, doc.DailyCounts); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("project_id", projectID).Msg("failed to persist daily series")
		}
	}

	return doc, nil
}

// Cached returns the stored report document and daily series for a
// project. ErrProjectNotFound when the project is unknown; store.ErrNotFound
// passes through when the project exists but nothing is cached yet.
func (a *Aggregator) Cached(ctx context.Context, projectID string) (*models.ReportDocument, *models.DailyCountsSeries, error) {
	if _, err := a.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	doc, err := a.store.GetReport(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	series, err := a.store.GetDailySeries(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		series = &models.DailyCountsSeries{Counts: []models.DailyCount{}}
	} else if err != nil {
		return nil, nil, err
	}

	return doc, series, nil
}
