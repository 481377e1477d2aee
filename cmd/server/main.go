// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tomtom215/postrec/internal/api"
	"github.com/tomtom215/postrec/internal/config"
	"github.com/tomtom215/postrec/internal/database"
	"github.com/tomtom215/postrec/internal/experiment"
	"github.com/tomtom215/postrec/internal/features"
	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/model"
	"github.com/tomtom215/postrec/internal/recommend"
	"github.com/tomtom215/postrec/internal/supervisor"
	"github.com/tomtom215/postrec/internal/supervisor/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(loggingConfig(cfg))
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("database_driver", cfg.Database.Driver).
		Bool("ab_test_enabled", cfg.Experiment.Enabled).
		Int("group_a_percentage", cfg.Experiment.GroupAPercentage).
		Msg("Starting postrec")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, databaseConfig(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.CloseWithLog(db, "database")

	featureDB, closeFeatureDB, err := openFeatureSource(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open feature source")
	}
	defer closeFeatureDB()

	loader := features.NewLoader(featureDB, loaderConfig(cfg))
	snap, err := loadInitialSnapshot(ctx, loader, cfg.Features.LoadTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load features")
	}
	snapshots := features.NewStore(snap)

	setCfg, err := modelSetConfig(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid model configuration")
	}
	models, err := model.LoadSet(setCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load models")
	}
	logging.Info().
		Str("control", cfg.Models.ControlPath).
		Str("test", cfg.Models.TestPath).
		Msg("Models loaded")

	assigner, err := experiment.NewAssigner(experimentConfig(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid experiment configuration")
	}

	recommender, err := recommend.NewService(snapshots, models, assigner, recommendConfig(cfg), logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommender")
	}

	store := database.NewStore(db, storeConfig(cfg))

	handler, err := api.NewHandler(recommender, store, snapshots, api.HandlerConfig{Limits: recommendConfig(cfg)})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handler")
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(chiMiddlewareConfig(cfg)))
	server := newHTTPServer(cfg, router.Setup())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Features.RefreshInterval > 0 {
		tree.AddDataService(services.NewSnapshotRefreshService(loader, snapshots, services.SnapshotRefreshConfig{
			Interval:    cfg.Features.RefreshInterval,
			LoadTimeout: cfg.Features.LoadTimeout,
		}))
		logging.Info().Dur("interval", cfg.Features.RefreshInterval).Msg("Snapshot refresh service added")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
