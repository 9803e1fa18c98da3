// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package ga

import (
	"context"
	"fmt"
	"time"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
)

// realtimeWindowMinutes is the span of the realtime minute trend.
const realtimeWindowMinutes = 30

// Client wraps the GA4 Data API service.
type Client struct {
	service      *analyticsdata.Service
	queryTimeout time.Duration
}

// NewClient creates a Data API client. Credentials come from the configured
// service account key file, or Application Default Credentials when unset.
func NewClient(ctx context.Context, cfg config.GAConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data service: %w", err)
	}

	logging.Info().
		Bool("service_account", cfg.CredentialsFile != "").
		Dur("query_timeout", cfg.QueryTimeout).
		Msg("Google Analytics client initialized")

	return &Client{
		service:      service,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// RunReport executes a historical report over the trailing lookbackDays
// window ending today, in the property's reporting timezone.
func (c *Client) RunReport(ctx context.Context, propertyID string, lookbackDays int, spec QuerySpec) ([]Row, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{
				StartDate: fmt.Sprintf("%ddaysAgo", lookbackDays),
				EndDate:   "today",
			},
		},
		Dimensions: buildDimensions(spec.Dimensions),
		Metrics:    buildMetrics(spec.Metrics),
		OrderBys:   buildOrderBys(spec.OrderBy),
		Limit:      spec.Limit,
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.service.Properties.RunReport(fmt.Sprintf("properties/%s", propertyID), req).Context(ctx).Do()
	if err != nil {
		metrics.RecordGAQuery(spec.Facet, time.Since(start), 0, err)
		return nil, fmt.Errorf("run report %s: %w", spec.Facet, err)
	}

	rows := convertRows(resp.Rows)
	metrics.RecordGAQuery(spec.Facet, time.Since(start), len(rows), nil)
	return rows, nil
}

// RunRealtimeReport executes a realtime report over the last 30 minutes.
func (c *Client) RunRealtimeReport(ctx context.Context, propertyID string, spec QuerySpec) ([]Row, error) {
	req := &analyticsdata.RunRealtimeReportRequest{
		Dimensions: buildDimensions(spec.Dimensions),
		Metrics:    buildMetrics(spec.Metrics),
		MinuteRanges: []*analyticsdata.MinuteRange{
			{StartMinutesAgo: realtimeWindowMinutes - 1},
		},
		OrderBys: buildOrderBys(spec.OrderBy),
		Limit:    spec.Limit,
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.service.Properties.RunRealtimeReport(fmt.Sprintf("properties/%s", propertyID), req).Context(ctx).Do()
	if err != nil {
		metrics.RecordGAQuery(spec.Facet, time.Since(start), 0, err)
		return nil, fmt.Errorf("run realtime report %s: %w", spec.Facet, err)
	}

	rows := convertRows(resp.Rows)
	metrics.RecordGAQuery(spec.Facet, time.Since(start), len(rows), nil)
	return rows, nil
}

func buildDimensions(names []string) []*analyticsdata.Dimension {
	dims := make([]*analyticsdata.Dimension, 0, len(names))
	for _, n := range names {
		dims = append(dims, &analyticsdata.Dimension{Name: n})
	}
	return dims
}

func buildMetrics(names []string) []*analyticsdata.Metric {
	mets := make([]*analyticsdata.Metric, 0, len(names))
	for _, n := range names {
		mets = append(mets, &analyticsdata.Metric{Name: n})
	}
	return mets
}

func buildOrderBys(order *Order) []*analyticsdata.OrderBy {
	if order == nil {
		return nil
	}
	ob := &analyticsdata.OrderBy{Desc: order.Desc}
	if order.Metric != "" {
		ob.Metric = &analyticsdata.MetricOrderBy{MetricName: order.Metric}
	} else {
		ob.Dimension = &analyticsdata.DimensionOrderBy{DimensionName: order.Dimension}
	}
	return []*analyticsdata.OrderBy{ob}
}

func convertRows(in []*analyticsdata.Row) []Row {
	rows := make([]Row, 0, len(in))
	for _, r := range in {
		if r == nil {
			continue
		}
		row := Row{
			Dims: make([]string, 0, len(r.DimensionValues)),
			Mets: make([]string, 0, len(r.MetricValues)),
		}
		for _, d := range r.DimensionValues {
			row.Dims = append(row.Dims, d.Value)
		}
		for _, m := range r.MetricValues {
			row.Mets = append(row.Mets, m.Value)
		}
		rows = append(rows, row)
	}
	return rows
}
