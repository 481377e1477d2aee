// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/postrec/internal/database"
	"github.com/tomtom215/postrec/internal/recommend"
)

// Recommender ranks posts for one request. Implemented by *recommend.Service.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Result, error)
}

// PostStore reads likes and post metadata. Implemented by *database.Store.
type PostStore interface {
	LikedPostIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
	Posts(ctx context.Context, ids []int64) ([]database.Post, error)
	Ping(ctx context.Context) error
	BreakerState() string
}

// SnapshotStatus reports whether features are loaded. Implemented by
// *features.Store.
type SnapshotStatus interface {
	Ready() bool
}

// HandlerConfig holds the request limits the handler enforces.
type HandlerConfig struct {
	Limits recommend.Config

	// ReadyTimeout bounds the database ping of the readiness probe.
	ReadyTimeout time.Duration
}

// Handler serves the API endpoints.
type Handler struct {
	recommender Recommender
	posts       PostStore
	snapshots   SnapshotStatus
	cfg         HandlerConfig
	startTime   time.Time
}

// NewHandler creates a Handler. All dependencies are required.
func NewHandler(recommender Recommender, posts PostStore, snapshots SnapshotStatus, cfg HandlerConfig) (*Handler, error) {
	if recommender == nil || posts == nil || snapshots == nil {
		return nil, errors.New("api: recommender, post store and snapshot status are required")
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}
	return &Handler{
		recommender: recommender,
		posts:       posts,
		snapshots:   snapshots,
		cfg:         cfg,
		startTime:   time.Now(),
	}, nil
}
