// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all optional settings
//  2. Config File: Optional YAML config file
//  3. Environment Variables: Override any mapped setting
type Config struct {
	Server         ServerConfig         `koanf:"server"`
	Database       DatabaseConfig       `koanf:"database"`
	Features       FeaturesConfig       `koanf:"features"`
	Models         ModelsConfig         `koanf:"models"`
	Experiment     ExperimentConfig     `koanf:"experiment"`
	Recommend      RecommendConfig      `koanf:"recommend"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Cache          CacheConfig          `koanf:"cache"`
	Security       SecurityConfig       `koanf:"security"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the primary database connection (post, feed_action).
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	LikeAction      string        `koanf:"like_action"` // feed_action.action value counted as a like
}

// FeaturesConfig describes where the user and post feature tables come
// from. An empty Driver reuses the database connection.
type FeaturesConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	UsersQuery      string        `koanf:"users_query"`
	UsersKey        string        `koanf:"users_key"`
	PostsQuery      string        `koanf:"posts_query"`
	PostsKey        string        `koanf:"posts_key"`
	ChunkSize       int           `koanf:"chunk_size"`
	LoadTimeout     time.Duration `koanf:"load_timeout"`
	RefreshInterval time.Duration `koanf:"refresh_interval"` // 0 disables periodic reload
}

// ModelsConfig locates the model artifact for each experiment group.
type ModelsConfig struct {
	ControlPath   string `koanf:"control_path"`
	ControlOutput string `koanf:"control_output"` // raw or probability
	TestPath      string `koanf:"test_path"`
	TestOutput    string `koanf:"test_output"`
}

// ExperimentConfig holds A/B assignment settings.
type ExperimentConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Salt             string `koanf:"salt"`
	GroupAPercentage int    `koanf:"group_a_percentage"`
}

// RecommendConfig holds request limits.
type RecommendConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// RetryConfig is the retry policy for database and feature loading calls.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	MaxDelay    time.Duration `koanf:"max_delay"`
	Multiplier  float64       `koanf:"multiplier"`
	Jitter      float64       `koanf:"jitter"`
}

// CircuitBreakerConfig tunes the breaker in front of the database.
type CircuitBreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// CacheConfig sizes the post metadata cache. Size 0 disables it.
type CacheConfig struct {
	PostsSize int           `koanf:"posts_size"`
	PostsTTL  time.Duration `koanf:"posts_ttl"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
