// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/postrec/internal/features"
	"github.com/tomtom215/postrec/internal/logging"
)

// SnapshotLoader builds a new feature snapshot. Implemented by
// *features.Loader.
type SnapshotLoader interface {
	Load(ctx context.Context) (*features.Snapshot, error)
}

// SnapshotSwapper installs a snapshot. Implemented by *features.Store.
type SnapshotSwapper interface {
	Swap(snap *features.Snapshot) *features.Snapshot
}

// SnapshotRefreshConfig configures SnapshotRefreshService.
type SnapshotRefreshConfig struct {
	// Interval between reloads. Must be positive.
	Interval time.Duration

	// LoadTimeout bounds one reload.
	// Default: 10m
	LoadTimeout time.Duration
}

// SnapshotRefreshService reloads features every Interval. Requests in flight
// keep the snapshot they started with.
//
// Each tick:
//  1. Loads a complete snapshot under LoadTimeout
//  2. On failure, logs a warning and keeps serving the previous snapshot
//  3. On success, swaps it in atomically and logs the new table sizes
//
// Example usage:
//
//	svc := services.NewSnapshotRefreshService(loader, snapshots, services.SnapshotRefreshConfig{
//		Interval:    10 * time.Minute,
//		LoadTimeout: 5 * time.Minute,
//	})
//	tree.AddDataService(svc)
type SnapshotRefreshService struct {
	loader  SnapshotLoader
	store   SnapshotSwapper
	config  SnapshotRefreshConfig
	logger  zerolog.Logger
	name    string
	newTick func(time.Duration) (<-chan time.Time, func())
}

// NewSnapshotRefreshService creates the service.
func NewSnapshotRefreshService(loader SnapshotLoader, store SnapshotSwapper, cfg SnapshotRefreshConfig) *SnapshotRefreshService {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Minute
	}
	return &SnapshotRefreshService{
		loader: loader,
		store:  store,
		config: cfg,
		logger: logging.WithComponent("snapshot-refresh"),
		name:   "snapshot-refresh",
		newTick: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Serve implements suture.Service. The startup snapshot is already
// installed, so the first reload happens one interval after start.
func (s *SnapshotRefreshService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.logger.Info().Msg("snapshot refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	tick, stop := s.newTick(s.config.Interval)
	defer stop()

	s.logger.Info().Dur("interval", s.config.Interval).Msg("snapshot refresh running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("snapshot refresh failed, keeping previous snapshot")
			}
		}
	}
}

// Refresh loads and installs one snapshot.
func (s *SnapshotRefreshService) Refresh(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.config.LoadTimeout)
	defer cancel()

	snap, err := s.loader.Load(loadCtx)
	if err != nil {
		return err
	}

	old := s.store.Swap(snap)
	event := s.logger.Info().
		Int("users", snap.Users.Len()).
		Int("posts", snap.Posts.Len())
	if old != nil {
		event = event.Time("previous_loaded_at", old.LoadedAt)
	}
	event.Msg("feature snapshot swapped")
	return nil
}

// String names the service in supervisor events.
func (s *SnapshotRefreshService) String() string {
	return s.name
}
