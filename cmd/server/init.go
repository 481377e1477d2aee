// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/postrec/internal/api"
	"github.com/tomtom215/postrec/internal/config"
	"github.com/tomtom215/postrec/internal/database"
	"github.com/tomtom215/postrec/internal/experiment"
	"github.com/tomtom215/postrec/internal/features"
	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/model"
	"github.com/tomtom215/postrec/internal/recommend"
	"github.com/tomtom215/postrec/internal/retry"
)

// The functions below translate config sections into the options of each
// package, so internal packages never import config.

func loggingConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.Caller = cfg.Logging.Caller
	lc.Output = os.Stderr
	return lc
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Multiplier:  cfg.Retry.Multiplier,
		Jitter:      cfg.Retry.Jitter,
	}
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}
}

func storeConfig(cfg *config.Config) database.StoreConfig {
	return database.StoreConfig{
		Retry: retryPolicy(cfg),
		Breaker: database.BreakerConfig{
			Enabled:      cfg.CircuitBreaker.Enabled,
			MaxRequests:  cfg.CircuitBreaker.MaxRequests,
			Interval:     cfg.CircuitBreaker.Interval,
			Timeout:      cfg.CircuitBreaker.Timeout,
			MinRequests:  cfg.CircuitBreaker.MinRequests,
			FailureRatio: cfg.CircuitBreaker.FailureRatio,
		},
		CacheSize:  cfg.Cache.PostsSize,
		CacheTTL:   cfg.Cache.PostsTTL,
		LikeAction: cfg.Database.LikeAction,
	}
}

// openFeatureSource returns the connection feature queries run on. With no
// features driver configured it is the main database and closing is a no-op.
func openFeatureSource(ctx context.Context, cfg *config.Config, db *sql.DB) (*sql.DB, func(), error) {
	if cfg.Features.Driver == "" {
		return db, func() {}, nil
	}

	featureDB, err := database.Open(ctx, database.Config{
		Driver:         cfg.Features.Driver,
		URL:            cfg.Features.URL,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("features %s: %w", cfg.Features.Driver, err)
	}
	return featureDB, func() { database.CloseWithLog(featureDB, "feature source") }, nil
}

func loaderConfig(cfg *config.Config) features.LoaderConfig {
	return features.LoaderConfig{
		Users: features.TableQuery{
			Name:      "user",
			Query:     cfg.Features.UsersQuery,
			KeyColumn: cfg.Features.UsersKey,
		},
		Posts: features.TableQuery{
			Name:      "post",
			Query:     cfg.Features.PostsQuery,
			KeyColumn: cfg.Features.PostsKey,
		},
		ChunkSize: cfg.Features.ChunkSize,
		Retry:     retryPolicy(cfg),
	}
}

func loadInitialSnapshot(ctx context.Context, loader *features.Loader, timeout time.Duration) (*features.Snapshot, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return loader.Load(ctx)
}

func modelSetConfig(cfg *config.Config) (model.SetConfig, error) {
	controlOutput, err := model.ParseOutput(cfg.Models.ControlOutput)
	if err != nil {
		return model.SetConfig{}, fmt.Errorf("control: %w", err)
	}
	testOutput, err := model.ParseOutput(cfg.Models.TestOutput)
	if err != nil {
		return model.SetConfig{}, fmt.Errorf("test: %w", err)
	}
	return model.SetConfig{
		ControlPath:   cfg.Models.ControlPath,
		ControlOutput: controlOutput,
		TestPath:      cfg.Models.TestPath,
		TestOutput:    testOutput,
	}, nil
}

func experimentConfig(cfg *config.Config) experiment.Config {
	return experiment.Config{
		Enabled:          cfg.Experiment.Enabled,
		Salt:             cfg.Experiment.Salt,
		GroupAPercentage: cfg.Experiment.GroupAPercentage,
	}
}

func recommendConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		DefaultLimit: cfg.Recommend.DefaultLimit,
		MaxLimit:     cfg.Recommend.MaxLimit,
	}
}

func chiMiddlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	mw.TrustedProxies = cfg.Security.TrustedProxies
	return mw
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
