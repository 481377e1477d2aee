// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/postrec/internal/experiment"
	"github.com/tomtom215/postrec/internal/features"
	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/metrics"
	"github.com/tomtom215/postrec/internal/model"
)

// SnapshotSource returns the feature snapshot to rank against.
// features.Store satisfies it.
type SnapshotSource interface {
	Current() *features.Snapshot
}

// Service ranks posts for users. It is safe for concurrent use.
type Service struct {
	snapshots SnapshotSource
	models    *model.Set
	assigner  *experiment.Assigner
	config    Config
	logger    zerolog.Logger
}

// NewService wires a service. All collaborators are required.
func NewService(snapshots SnapshotSource, models *model.Set, assigner *experiment.Assigner, cfg Config, logger zerolog.Logger) (*Service, error) {
	if snapshots == nil {
		return nil, errors.New("snapshot source is required")
	}
	if models == nil || models.Control == nil || models.Test == nil {
		return nil, errors.New("control and test models are required")
	}
	if assigner == nil {
		return nil, errors.New("experiment assigner is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}

	return &Service{
		snapshots: snapshots,
		models:    models,
		assigner:  assigner,
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns the service limits.
func (s *Service) Config() Config {
	return s.config
}

// Recommend returns up to req.Limit post IDs for req.UserID, best first.
//
// Pipeline:
//  1. Reject a non-positive limit with ErrInvalidArgument
//  2. Assign the experiment group
//  3. Build the candidate frame from the current snapshot
//  4. Unknown user: empty result, OutcomeColdStart
//  5. Drop posts in req.Liked; nothing left gives OutcomeAllExcluded
//  6. Score with the group's model; any error or panic gives OutcomeScoringFailed
//  7. Stable sort by score descending, then truncate to req.Limit
//
// The only error is ErrInvalidArgument. Every other failure is logged and
// reported through Result.Outcome with an empty PostIDs.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	if req.Limit <= 0 {
		return Result{}, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, req.Limit)
	}

	start := time.Now()
	group := s.assigner.Assign(req.UserID)
	logger := s.requestLogger(ctx, req, group)

	res := s.rank(req, group, logger)

	metrics.RecordRecommendation(string(group), string(res.Outcome), time.Since(start))
	logger.Debug().
		Str("outcome", string(res.Outcome)).
		Int("returned", len(res.PostIDs)).
		Dur("duration", time.Since(start)).
		Msg("recommendation served")

	return res, nil
}

func (s *Service) rank(req Request, group experiment.Group, logger zerolog.Logger) Result {
	empty := func(o Outcome) Result {
		return Result{PostIDs: []int64{}, Group: group, Outcome: o}
	}

	frame := features.Build(req.UserID, s.snapshots.Current(), req.Time)
	if !frame.HasUser() {
		return empty(OutcomeColdStart)
	}

	frame = frame.Exclude(req.Liked)
	metrics.RecordCandidates(frame.Len())
	if frame.Len() == 0 {
		return empty(OutcomeAllExcluded)
	}

	scores, err := s.score(frame, group)
	if err != nil {
		metrics.RecordScoringError(string(group))
		event := logger.Error().Err(err)
		var inputErr *model.InputError
		if errors.As(err, &inputErr) {
			event = event.Strs("missing_columns", inputErr.Missing)
		}
		event.Msg("scoring failed, returning empty recommendations")
		return empty(OutcomeScoringFailed)
	}

	return Result{
		PostIDs: topN(frame.PostIDs(), scores, req.Limit),
		Group:   group,
		Outcome: OutcomeRanked,
	}
}

// score runs the group's model over frame. A panicking evaluator is
// reported as an error so the request falls back to an empty result.
func (s *Service) score(frame *features.Frame, group experiment.Group) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores, err = nil, fmt.Errorf("model for group %s panicked: %v", group, r)
		}
	}()

	adapter, err := s.models.For(group)
	if err != nil {
		return nil, err
	}
	rows, err := model.Inputs(frame, adapter)
	if err != nil {
		return nil, err
	}
	scores, err = adapter.Score(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) != frame.Len() {
		return nil, fmt.Errorf("model %s returned %d scores for %d rows", adapter.Name(), len(scores), frame.Len())
	}
	return scores, nil
}

func (s *Service) requestLogger(ctx context.Context, req Request, group experiment.Group) zerolog.Logger {
	lc := s.logger.With().
		Int64("user_id", req.UserID).
		Str("exp_group", string(group)).
		Int("limit", req.Limit)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	return lc.Logger()
}

// topN orders ids by score descending and keeps the first n. Ties keep
// frame order. NaN scores sort after every number.
func topN(ids []int64, scores []float64, n int) []int64 {
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if math.IsNaN(sb) {
			return !math.IsNaN(sa)
		}
		return sa > sb
	})

	if n > len(order) {
		n = len(order)
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = ids[order[i]]
	}
	return out
}
