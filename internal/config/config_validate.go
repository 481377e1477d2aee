// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateFeatures,
		c.validateModels,
		c.validateExperiment,
		c.validateRecommend,
		c.validateRetry,
		c.validateCircuitBreaker,
		c.validateCache,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func validDriver(driver string) bool {
	switch strings.ToLower(driver) {
	case "postgres", "duckdb":
		return true
	default:
		return false
	}
}

func (c *Config) validateDatabase() error {
	if !validDriver(c.Database.Driver) {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or duckdb, got %q", c.Database.Driver)
	}
	if strings.EqualFold(c.Database.Driver, "postgres") && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.LikeAction == "" {
		return fmt.Errorf("LIKE_ACTION must not be empty")
	}
	return nil
}

func (c *Config) validateFeatures() error {
	f := c.Features
	if f.Driver != "" && !validDriver(f.Driver) {
		return fmt.Errorf("FEATURES_DRIVER must be postgres or duckdb, got %q", f.Driver)
	}
	if strings.EqualFold(f.Driver, "postgres") && f.URL == "" {
		return fmt.Errorf("FEATURES_URL is required when FEATURES_DRIVER=postgres")
	}
	if f.UsersQuery == "" || f.PostsQuery == "" {
		return fmt.Errorf("USER_FEATURES_QUERY and POST_FEATURES_QUERY are required")
	}
	if f.UsersKey == "" || f.PostsKey == "" {
		return fmt.Errorf("USER_FEATURES_KEY and POST_FEATURES_KEY are required")
	}
	if f.ChunkSize <= 0 {
		return fmt.Errorf("FEATURES_CHUNK_SIZE must be positive, got %d", f.ChunkSize)
	}
	if f.RefreshInterval < 0 {
		return fmt.Errorf("FEATURES_REFRESH_INTERVAL must not be negative")
	}
	return nil
}

func validOutput(output string) bool {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "raw", "probability":
		return true
	default:
		return false
	}
}

func (c *Config) validateModels() error {
	if c.Models.ControlPath == "" {
		return fmt.Errorf("MODEL_CONTROL_PATH is required")
	}
	if c.Models.TestPath == "" {
		return fmt.Errorf("MODEL_TEST_PATH is required")
	}
	if !validOutput(c.Models.ControlOutput) {
		return fmt.Errorf("MODEL_CONTROL_OUTPUT must be raw or probability, got %q", c.Models.ControlOutput)
	}
	if !validOutput(c.Models.TestOutput) {
		return fmt.Errorf("MODEL_TEST_OUTPUT must be raw or probability, got %q", c.Models.TestOutput)
	}
	return nil
}

func (c *Config) validateExperiment() error {
	if p := c.Experiment.GroupAPercentage; p < 0 || p > 100 {
		return fmt.Errorf("GROUP_A_PERCENTAGE must be between 0 and 100, got %d", p)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultLimit <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be positive, got %d", r.DefaultLimit)
	}
	if r.MaxLimit < 0 {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT must not be negative, got %d", r.MaxLimit)
	}
	if r.MaxLimit > 0 && r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT (%d) exceeds RECOMMEND_MAX_LIMIT (%d)", r.DefaultLimit, r.MaxLimit)
	}
	return nil
}

func (c *Config) validateRetry() error {
	r := c.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", r.MaxAttempts)
	}
	if r.BaseDelay < 0 || r.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if r.MaxDelay > 0 && r.BaseDelay > r.MaxDelay {
		return fmt.Errorf("RETRY_BASE_DELAY (%v) exceeds RETRY_MAX_DELAY (%v)", r.BaseDelay, r.MaxDelay)
	}
	if r.Multiplier != 0 && r.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be >= 1, got %v", r.Multiplier)
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		return fmt.Errorf("retry.jitter must be in [0, 1), got %v", r.Jitter)
	}
	return nil
}

func (c *Config) validateCircuitBreaker() error {
	cb := c.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	if cb.FailureRatio <= 0 || cb.FailureRatio > 1 {
		return fmt.Errorf("CIRCUIT_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", cb.FailureRatio)
	}
	if cb.Timeout <= 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.PostsSize < 0 {
		return fmt.Errorf("POST_CACHE_SIZE must not be negative, got %d", c.Cache.PostsSize)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
