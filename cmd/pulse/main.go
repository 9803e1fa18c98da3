// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

// Package main is the entry point for the Pulse server.
//
// Pulse aggregates Google Analytics 4 report data for registered client
// sites, caches the canonical 7-day report in an embedded BadgerDB store,
// and keeps an in-memory heartbeat buffer for live visitor counts.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml, env)
//  2. Logging: zerolog global logger
//  3. Document store: BadgerDB (projects, cached reports, daily series)
//  4. GA client: Data API wrapped in a circuit breaker
//  5. Access guard: shared secret and per-client JWT
//  6. Heartbeat store and response cache
//  7. HTTP server: chi router, graceful shutdown on SIGINT/SIGTERM
//
// Required environment for production:
//   - GA_CREDENTIALS_FILE: service account JSON with Data API read access
//   - API_SHARED_SECRET and/or JWT_SECRET (32+ characters)
//   - STORE_PATH: BadgerDB directory (default /data/pulse)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/draycottdigital/pulse/internal/api"
	"github.com/draycottdigital/pulse/internal/auth"
	"github.com/draycottdigital/pulse/internal/cache"
	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/ga"
	"github.com/draycottdigital/pulse/internal/heartbeat"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/report"
	"github.com/draycottdigital/pulse/internal/store"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Pulse")

	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	if path := config.FindConfigFile(); path != "" {
		if err := config.WatchConfigFile(path, func() {
			reloaded, err := config.LoadWithKoanf()
			if err != nil {
				logging.Error().Err(err).Msg("Config reload failed, keeping current configuration")
				return
			}
			logging.Init(logging.Config{
				Level:  reloaded.Logging.Level,
				Format: reloaded.Logging.Format,
				Caller: reloaded.Logging.Caller,
			})
			logging.Info().Str("path", path).Msg("Configuration reloaded")
		}); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
		} else {
			logging.Info().Str("path", path).Msg("Watching config file for changes")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()

	if !cfg.Store.InMemory {
		go st.StartGC(ctx, cfg.Store.GCInterval)
	}

	gaClient, err := ga.NewClient(ctx, cfg.GA)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize GA client")
	}

	var runner ga.Runner = gaClient
	var breaker *ga.BreakerRunner
	if cfg.GA.BreakerDisabled {
		logging.Warn().Msg("GA circuit breaker disabled")
	} else {
		breaker = ga.NewBreakerRunner(gaClient)
		runner = breaker
	}

	guard, err := auth.NewGuard(cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize access guard")
	}

	aggregator := report.NewAggregator(runner, st)
	heartbeats := heartbeat.NewStore(cfg.Heartbeat)

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.New(cfg.Cache, "report")
		defer respCache.Stop()
		logging.Info().Dur("ttl", cfg.Cache.TTL).Msg("Response cache enabled")
	}

	handler := api.NewHandler(cfg, aggregator, guard, st, heartbeats, respCache)
	if breaker != nil {
		handler.SetBreaker(breaker)
	}

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      api.NewRouter(cfg, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go trackUptime(ctx)

	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	logging.Info().Msg("Pulse stopped gracefully")
}

func trackUptime(ctx context.Context) {
	start := time.Now()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.AppUptime.Set(time.Since(start).Seconds())
		}
	}
}
