// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pulse/config.yaml",
	"/etc/pulse/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Host:              "0.0.0.0",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			Environment:       "development", // Set ENVIRONMENT=production for production checks
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		GA: GAConfig{
			CredentialsFile: "",
			QueryTimeout:    10 * time.Second,
			BreakerDisabled: false,
		},
		Security: SecurityConfig{
			SharedSecret: "",
			JWTSecret:    "",
			TokenTTL:     24 * time.Hour,
		},
		Store: StoreConfig{
			Path:       "/data/pulse",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Heartbeat: HeartbeatConfig{
			BufferSize:  1000,
			RecentLimit: 50,
			TopPaths:    10,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             5 * time.Minute,
			CleanupInterval: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port
	// GA_CREDENTIALS_FILE -> ga.credentials_file
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the path of the config file the loader would use,
// or empty string if none exists. Useful for wiring WatchConfigFile against
// the same file LoadWithKoanf read.
func FindConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envMappings maps flat environment variable names to nested config paths.
// Only listed variables are honored; everything else is ignored so random
// environment noise never pollutes configuration.
var envMappings = map[string]string{
	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"environment":         "server.environment",
	"cors_origins":        "server.cors_origins",
	"rate_limit_reqs":     "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"rate_limit_disabled": "server.rate_limit_disabled",

	// Google Analytics
	"ga_credentials_file": "ga.credentials_file",
	"ga_query_timeout":    "ga.query_timeout",
	"ga_breaker_disabled": "ga.breaker_disabled",

	// Security
	"api_shared_secret": "security.shared_secret",
	"jwt_secret":        "security.jwt_secret",
	"jwt_token_ttl":     "security.token_ttl",

	// Store
	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_gc_interval": "store.gc_interval",

	// Heartbeat
	"heartbeat_buffer_size":  "heartbeat.buffer_size",
	"heartbeat_recent_limit": "heartbeat.recent_limit",
	"heartbeat_top_paths":    "heartbeat.top_paths",

	// Cache
	"cache_enabled":          "cache.enabled",
	"cache_ttl":              "cache.ttl",
	"cache_cleanup_interval": "cache.cleanup_interval",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - GA_CREDENTIALS_FILE -> ga.credentials_file
//   - API_SHARED_SECRET -> security.shared_secret
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
