// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package store implements the BadgerDB-backed document store holding
// projects, cached report documents, and daily count series.
//
// Report writes are merges, not replacements: the existing document is
// read as a generic JSON map and only non-empty incoming fields are
// overlaid, so a partial write never clobbers unrelated fields.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	projectKeyPrefix = "project:"
	reportKeyPrefix  = "report:"
	seriesKeyPrefix  = "report_series:"
	seriesKeySuffix  = ":daily"

	// maxSeriesDays bounds the stored daily series. Merges keep the most
	// recent days; older entries are dropped on write.
	maxSeriesDays = 365
)

// ErrNotFound is returned when a key has no stored document.
var ErrNotFound = errors.New("document not found")

// Store is a BadgerDB-backed JSON document store.
type Store struct {
	db *badger.DB
}

// Open opens the store at the configured path, or an ephemeral in-memory
// store when cfg.InMemory is set.
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's default logger is too chatty; routing through zerolog
	// happens at the call sites that matter.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("document store opened")
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is open and readable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("store: database closed")
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// StartGC runs Badger value log garbage collection on the given interval
// until ctx is cancelled. No-op for in-memory stores (GC returns an error
// that is simply skipped).
func (s *Store) StartGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// GetProject loads a project by id. Returns ErrNotFound if absent.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.getJSON(projectKeyPrefix+id, "project", &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// PutProject stores a project, stamping UpdatedAt (and CreatedAt on first
// write).
func (s *Store) PutProject(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.UpdatedAt = now

	existing, err := s.GetProject(ctx, project.ID)
	switch {
	case err == nil:
		project.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		project.CreatedAt = now
	default:
		return err
	}

	return s.putJSON(projectKeyPrefix+project.ID, "project", project)
}

// DeleteProject removes a project and its cached report data.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{
			projectKeyPrefix + id,
			reportKeyPrefix + id,
			seriesKeyPrefix + id + seriesKeySuffix,
		} {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
	metrics.RecordStoreOperation("delete", "project", time.Since(start), err)
	return err
}

// GetReport loads the cached report document for a project.
func (s *Store) GetReport(ctx context.Context, projectID string) (*models.ReportDocument, error) {
	var doc models.ReportDocument
	if err := s.getJSON(reportKeyPrefix+projectID, "report", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MergeReport overlays the non-empty fields of doc onto the stored report
// document. Fields absent or empty in doc keep their stored values.
func (s *Store) MergeReport(ctx context.Context, projectID string, doc *models.ReportDocument) error {
	start := time.Now()
	err := s.mergeJSON(reportKeyPrefix+projectID, doc)
	metrics.RecordStoreOperation("merge", "report", time.Since(start), err)
	if err != nil {
		return err
	}
	metrics.ReportCacheWrites.WithLabelValues("report").Inc()
	return nil
}

// GetDailySeries loads the stored daily counts series for a project.
func (s *Store) GetDailySeries(ctx context.Context, projectID string) (*models.DailyCountsSeries, error) {
	var series models.DailyCountsSeries
	if err := s.getJSON(seriesKeyPrefix+projectID+seriesKeySuffix, "daily_series", &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// MergeDailySeries unions the given counts into the stored series, keyed
// by date with incoming values winning, and re-sorts ascending by date.
// The stored series is trimmed to the most recent maxSeriesDays entries.
func (s *Store) MergeDailySeries(ctx context.Context, projectID string, counts []models.DailyCount) error {
	start := time.Now()

	existing, err := s.GetDailySeries(ctx, projectID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreOperation("merge", "daily_series", time.Since(start), err)
		return err
	}

	byDate := make(map[string]int64)
	if existing != nil {
		for _, c := range existing.Counts {
			byDate[c.Date] = c.Count
		}
	}
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	merged := make([]models.DailyCount, 0, len(byDate))
	for date, count := range byDate {
		merged = append(merged, models.DailyCount{Date: date, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })

	if len(merged) > maxSeriesDays {
		merged = merged[len(merged)-maxSeriesDays:]
	}

	series := models.DailyCountsSeries{
		Counts:    merged,
		UpdatedAt: time.Now().UTC(),
	}

	err = s.putJSON(seriesKeyPrefix+projectID+seriesKeySuffix, "daily_series", &series)
	metrics.RecordStoreOperation("merge", "daily_series", time.Since(start), err)
	if err != nil {
		return err
	}
	metrics.ReportCacheWrites.WithLabelValues("daily_series").Inc()
	return nil
}

// getJSON reads and unmarshals a single key. Returns ErrNotFound when the
// key is absent.
func (s *Store) getJSON(key, kind string, out interface{}) error {
	start := time.Now()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreOperation("get", kind, time.Since(start), err)
	}
	return err
}

// putJSON marshals and writes a single key.
func (s *Store) putJSON(key, kind string, val interface{}) error {
	start := time.Now()

	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	metrics.RecordStoreOperation("put", kind, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// mergeJSON performs a field-level merge: the stored document and the new
// document are both treated as generic JSON maps, and only non-empty new
// fields replace stored ones.
func (s *Store) mergeJSON(key string, val interface{}) error {
	newData, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(newData, &incoming); err != nil {
		return fmt.Errorf("remarshal %s: %w", key, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		merged := make(map[string]json.RawMessage)

		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First write, nothing to merge
		case err != nil:
			return fmt.Errorf("get %s: %w", key, err)
		default:
			if err := item.Value(func(existing []byte) error {
				return json.Unmarshal(existing, &merged)
			}); err != nil {
				return fmt.Errorf("unmarshal existing %s: %w", key, err)
			}
		}

		for field, raw := range incoming {
			if isEmptyJSON(raw) {
				continue
			}
			merged[field] = raw
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshal merged %s: %w", key, err)
		}
		return txn.Set([]byte(key), data)
	})
}

// isEmptyJSON reports whether a raw JSON value carries no data: null,
// empty string, empty array, or empty object.
func isEmptyJSON(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}
