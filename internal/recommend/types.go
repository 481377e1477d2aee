// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package recommend

import (
	"errors"
	"time"

	"github.com/tomtom215/postrec/internal/experiment"
)

// ErrInvalidArgument is returned when the request limit is not positive.
var ErrInvalidArgument = errors.New("invalid argument")

// Request is one recommendation call.
type Request struct {
	// UserID identifies the user to rank for.
	UserID int64

	// Time is the request moment. day_of_week and hour are derived from it.
	Time time.Time

	// Liked holds post IDs to exclude. May be nil.
	Liked map[int64]struct{}

	// Limit is the maximum number of post IDs to return. Must be > 0.
	Limit int
}

// Outcome says how a request was resolved.
type Outcome string

const (
	// OutcomeRanked means at least one candidate was scored.
	OutcomeRanked Outcome = "ranked"
	// OutcomeColdStart means the user has no feature row.
	OutcomeColdStart Outcome = "cold_start"
	// OutcomeAllExcluded means every post was already liked.
	OutcomeAllExcluded Outcome = "all_excluded"
	// OutcomeScoringFailed means the model could not score the frame.
	OutcomeScoringFailed Outcome = "scoring_failed"
)

// Result is the ranked post IDs plus the group that produced them.
type Result struct {
	PostIDs []int64
	Group   experiment.Group
	Outcome Outcome
}

// Empty reports whether no posts were recommended.
func (r Result) Empty() bool {
	return len(r.PostIDs) == 0
}
