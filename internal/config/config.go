// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Upstream:
//     - GA: Google Analytics Data API credentials and query limits
//
//  2. Infrastructure:
//     - Store: Badger document store (report documents, projects, daily series)
//     - Server: HTTP server configuration (port, host, timeouts, CORS, rate limits)
//     - Cache: In-process response cache for shaped reports
//     - Heartbeat: Live visitor ring buffer sizing
//
//  3. Security:
//     - Security: Shared secret and JWT settings for the access guard
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Example - Load configuration from environment:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Server.Port, cfg.Store.Path, etc. are now populated
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	GA        GAConfig        `koanf:"ga"`
	Security  SecurityConfig  `koanf:"security"`
	Store     StoreConfig     `koanf:"store"`
	Heartbeat HeartbeatConfig `koanf:"heartbeat"`
	Cache     CacheConfig     `koanf:"cache"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	Host              string        `koanf:"host"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	Environment       string        `koanf:"environment"` // "development" or "production"
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// GAConfig holds Google Analytics Data API client configuration.
type GAConfig struct {
	CredentialsFile string        `koanf:"credentials_file"` // Service account JSON key path; ADC when empty
	QueryTimeout    time.Duration `koanf:"query_timeout"`    // Per-query deadline for Data API calls
	BreakerDisabled bool          `koanf:"breaker_disabled"` // Bypass the circuit breaker (tests only)
}

// SecurityConfig holds access guard configuration.
// A request passes the guard with either the shared secret or a
// Bearer token whose subject matches the project's client identifier.
type SecurityConfig struct {
	SharedSecret string        `koanf:"shared_secret"` // Partner API key (x-api-key header or api_key query)
	JWTSecret    string        `koanf:"jwt_secret"`    // HS256 signing secret for client tokens
	TokenTTL     time.Duration `koanf:"token_ttl"`     // Lifetime for newly issued client tokens
}

// StoreConfig holds Badger document store configuration.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`   // Ephemeral store, used by tests
	GCInterval time.Duration `koanf:"gc_interval"` // Value log GC cadence
}

// HeartbeatConfig holds live visitor tracking configuration.
type HeartbeatConfig struct {
	BufferSize  int `koanf:"buffer_size"`  // Ring buffer capacity; oldest events are evicted first
	RecentLimit int `koanf:"recent_limit"` // Events returned in the live stats recent list
	TopPaths    int `koanf:"top_paths"`    // Paths returned in the live stats path breakdown
}

// CacheConfig holds the in-process response cache configuration.
type CacheConfig struct {
	Enabled         bool          `koanf:"enabled"`
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // "json" or "console"
	Caller bool   `koanf:"caller"` // Include caller file:line in log entries
}

// IsProduction reports whether the server runs with production checks enabled.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive")
		}
	}

	if c.GA.QueryTimeout <= 0 {
		return fmt.Errorf("ga.query_timeout must be positive")
	}

	// Without either credential the guard would reject every request.
	if c.Security.SharedSecret == "" && c.Security.JWTSecret == "" {
		return fmt.Errorf("at least one of security.shared_secret or security.jwt_secret must be set")
	}

	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}

	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}

	if c.Heartbeat.BufferSize <= 0 {
		return fmt.Errorf("heartbeat.buffer_size must be positive, got %d", c.Heartbeat.BufferSize)
	}
	if c.Heartbeat.RecentLimit <= 0 || c.Heartbeat.RecentLimit > c.Heartbeat.BufferSize {
		return fmt.Errorf("heartbeat.recent_limit must be between 1 and heartbeat.buffer_size")
	}
	if c.Heartbeat.TopPaths <= 0 {
		return fmt.Errorf("heartbeat.top_paths must be positive, got %d", c.Heartbeat.TopPaths)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// ListenAddr returns the host:port string for the HTTP listener.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
