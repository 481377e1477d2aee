// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

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
	"/etc/postrec/config.yaml",
	"/etc/postrec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			URL:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectTimeout:  8 * time.Second,
			LikeAction:      "like",
		},
		Features: FeaturesConfig{
			Driver:          "", // empty = same connection as database
			URL:             "",
			UsersQuery:      "SELECT * FROM user_features",
			UsersKey:        "user_id",
			PostsQuery:      "SELECT * FROM post_features",
			PostsKey:        "post_id",
			ChunkSize:       200000,
			LoadTimeout:     10 * time.Minute,
			RefreshInterval: 0,
		},
		Models: ModelsConfig{
			ControlOutput: "probability",
			TestOutput:    "probability",
		},
		Experiment: ExperimentConfig{
			Enabled:          true,
			Salt:             "salt",
			GroupAPercentage: 50,
		},
		Recommend: RecommendConfig{
			DefaultLimit: 5,
			MaxLimit:     100,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    10 * time.Second,
			Multiplier:  2,
			Jitter:      0.1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Cache: CacheConfig{
			PostsSize: 10000,
			PostsTTL:  10 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			TrustedProxies:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DATABASE_URL -> database.url, GROUP_A_PERCENTAGE -> experiment.group_a_percentage
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored so the host environment cannot leak into
// configuration.
var envMappings = map[string]string{
	// Names kept from the first release of the service
	"database_url":       "database.url",
	"model_control_path": "models.control_path",
	"model_test_path":    "models.test_path",
	"ab_test_enabled":    "experiment.enabled",
	"salt":               "experiment.salt",
	"group_a_percentage": "experiment.group_a_percentage",
	"log_level":          "logging.level",
	"log_format":         "logging.format",

	"model_control_output": "models.control_output",
	"model_test_output":    "models.test_output",

	// Database mappings
	"database_driver":             "database.driver",
	"database_max_open_conns":     "database.max_open_conns",
	"database_max_idle_conns":     "database.max_idle_conns",
	"database_conn_max_lifetime":  "database.conn_max_lifetime",
	"database_conn_max_idle_time": "database.conn_max_idle_time",
	"database_connect_timeout":    "database.connect_timeout",
	"like_action":                 "database.like_action",

	// Feature source mappings
	"features_driver":           "features.driver",
	"features_url":              "features.url",
	"user_features_query":       "features.users_query",
	"user_features_key":         "features.users_key",
	"post_features_query":       "features.posts_query",
	"post_features_key":         "features.posts_key",
	"features_chunk_size":       "features.chunk_size",
	"features_load_timeout":     "features.load_timeout",
	"features_refresh_interval": "features.refresh_interval",

	// Recommendation limits
	"recommend_default_limit": "recommend.default_limit",
	"recommend_max_limit":     "recommend.max_limit",

	// Retry and circuit breaker
	"retry_max_attempts":             "retry.max_attempts",
	"retry_base_delay":               "retry.base_delay",
	"retry_max_delay":                "retry.max_delay",
	"circuit_breaker_enabled":        "circuit_breaker.enabled",
	"circuit_breaker_timeout":        "circuit_breaker.timeout",
	"circuit_breaker_min_requests":   "circuit_breaker.min_requests",
	"circuit_breaker_failure_ratio":  "circuit_breaker.failure_ratio",
	"circuit_breaker_max_requests":   "circuit_breaker.max_requests",
	"circuit_breaker_count_interval": "circuit_breaker.interval",

	// Cache
	"post_cache_size": "cache.posts_size",
	"post_cache_ttl":  "cache.posts_ttl",

	// Server mappings
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security mappings
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"trusted_proxies":     "security.trusted_proxies",

	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DATABASE_URL -> database.url
//   - AB_TEST_ENABLED -> experiment.enabled
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
