// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package heartbeat tracks live visitors from client-side page heartbeats.
//
// Events live in a mutex-guarded ring buffer of fixed capacity. Eviction is
// by capacity only, oldest first, never by time; a traffic burst can push
// events out before their 15-minute window expires, which slightly
// undercounts the wider windows. That approximation is accepted: the store
// is ephemeral by design and is lost on restart.
package heartbeat

import (
	"sort"
	"sync"
	"time"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/models"
)

// Window bounds for the distinct-visitor counts.
const (
	window1m  = time.Minute
	window5m  = 5 * time.Minute
	window15m = 15 * time.Minute
)

// Store is a bounded in-memory heartbeat buffer.
type Store struct {
	mu       sync.Mutex
	events   []models.HeartbeatEvent // ring buffer, oldest at head
	start    int                     // index of oldest event
	count    int                     // live events in the buffer
	capacity int

	recentLimit int
	topPaths    int
}

// NewStore creates a heartbeat store with the configured capacity.
func NewStore(cfg config.HeartbeatConfig) *Store {
	return &Store{
		events:      make([]models.HeartbeatEvent, cfg.BufferSize),
		capacity:    cfg.BufferSize,
		recentLimit: cfg.RecentLimit,
		topPaths:    cfg.TopPaths,
	}
}

// Record appends an event, evicting the oldest when the buffer is full.
func (s *Store) Record(event models.HeartbeatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.capacity {
		// Overwrite the oldest slot
		s.events[s.start] = event
		s.start = (s.start + 1) % s.capacity
	} else {
		s.events[(s.start+s.count)%s.capacity] = event
		s.count++
	}

	metrics.HeartbeatsReceived.Inc()
	metrics.HeartbeatBufferSize.Set(float64(s.count))
}

// Len returns the number of buffered events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Stats builds the live visitor snapshot as of now: distinct remote
// addresses over the 1/5/15-minute windows, the busiest paths within the
// 5-minute window, and the most recent events newest-first.
func (s *Store) Stats(now time.Time) models.LiveStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMS := now.UnixMilli()
	cut1m := nowMS - window1m.Milliseconds()
	cut5m := nowMS - window5m.Milliseconds()
	cut15m := nowMS - window15m.Milliseconds()

	seen1m := make(map[string]struct{})
	seen5m := make(map[string]struct{})
	seen15m := make(map[string]struct{})
	pathHits := make(map[string]int)

	for i := 0; i < s.count; i++ {
		ev := s.events[(s.start+i)%s.capacity]
		if ev.Timestamp < cut15m || ev.Timestamp > nowMS {
			continue
		}
		seen15m[ev.RemoteAddress] = struct{}{}
		if ev.Timestamp >= cut5m {
			seen5m[ev.RemoteAddress] = struct{}{}
			pathHits[ev.Path]++
		}
		if ev.Timestamp >= cut1m {
			seen1m[ev.RemoteAddress] = struct{}{}
		}
	}

	stats := models.LiveStats{
		Active: models.ActiveCounts{
			M1:  len(seen1m),
			M5:  len(seen5m),
			M15: len(seen15m),
		},
		PageCounts: topPathCounts(pathHits, s.topPaths),
		Recent:     s.recentLocked(),
	}

	metrics.UpdateLiveVisitorGauges(stats.Active.M1, stats.Active.M5, stats.Active.M15)
	return stats
}

// recentLocked returns up to recentLimit events, newest first.
// Caller holds s.mu.
func (s *Store) recentLocked() []models.HeartbeatEvent {
	n := s.recentLimit
	if n > s.count {
		n = s.count
	}

	recent := make([]models.HeartbeatEvent, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.start + s.count - 1 - i + s.capacity) % s.capacity
		recent = append(recent, s.events[idx])
	}
	return recent
}

// topPathCounts ranks paths by hit count descending, path ascending on
// ties for a stable order, truncated to limit.
func topPathCounts(hits map[string]int, limit int) []models.PathCount {
	counts := make([]models.PathCount, 0, len(hits))
	for path, count := range hits {
		counts = append(counts, models.PathCount{Path: path, Count: count})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Path < counts[j].Path
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
