// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package cache provides a thread-safe in-memory response cache with TTL
// expiration. It sits in front of the report aggregator so repeated requests
// for the same project and range within the TTL window are served without
// touching the analytics provider.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/metrics"
)

// Entry is a cached value with its expiration instant.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache is a TTL map keyed by request signature. A background goroutine
// sweeps expired entries at the configured cleanup interval until Stop
// is called.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	ttl       time.Duration
	cacheType string
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a cache and starts its cleanup goroutine. cacheType labels
// the Prometheus cache metrics so multiple caches stay distinguishable.
func New(cfg config.CacheConfig, cacheType string) *Cache {
	c := &Cache{
		entries:   make(map[string]Entry),
		ttl:       cfg.TTL,
		cacheType: cacheType,
		stop:      make(chan struct{}),
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go c.cleanupLoop(interval)

	return c
}

// Get returns the cached value for key, or (nil, false) on a miss.
// An expired entry is removed and counted as both a miss and an eviction.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		metrics.CacheMisses.WithLabelValues(c.cacheType).Inc()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()

		metrics.CacheMisses.WithLabelValues(c.cacheType).Inc()
		metrics.CacheEvictions.WithLabelValues(c.cacheType).Inc()
		metrics.CacheSize.WithLabelValues(c.cacheType).Set(float64(size))
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(c.cacheType).Inc()
	return entry.Data, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.cacheType).Set(float64(size))
}

// Delete removes one entry. Safe to call for keys that do not exist.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if existed {
		metrics.CacheEvictions.WithLabelValues(c.cacheType).Inc()
	}
	metrics.CacheSize.WithLabelValues(c.cacheType).Set(float64(size))
}

// Clear removes every entry, typically after a project is updated or
// deleted so stale report responses are not served under the new config.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	metrics.CacheEvictions.WithLabelValues(c.cacheType).Add(float64(evicted))
	metrics.CacheSize.WithLabelValues(c.cacheType).Set(0)
}

// Len reports the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the background cleanup goroutine. Idempotent.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(c.cacheType).Add(float64(evicted))
	}
	metrics.CacheSize.WithLabelValues(c.cacheType).Set(float64(size))
}

// GenerateKey derives a compact cache key from an operation name and its
// parameters. Parameters are JSON-serialized and hashed so structurally
// equal requests share a key regardless of field ordering in the caller.
func GenerateKey(operation string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", operation, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", operation, hash[:16])
}
