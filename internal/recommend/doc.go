// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package recommend ranks posts for a user.
//
// # Pipeline
//
// Service.Recommend runs a fixed sequence for every request:
//
//  1. Reject a non-positive limit with ErrInvalidArgument.
//  2. Assign the user to an experiment group.
//  3. Build the scoring frame from the current feature snapshot. A user
//     missing from the snapshot is a cold start.
//  4. Drop the posts the user already liked.
//  5. Score the remaining rows with the group's model.
//  6. Stable sort by score, highest first.
//  7. Return the first limit post IDs.
//
// Cold start, an empty candidate set and a scoring failure all produce an
// empty result with the assigned group; only an invalid limit is an error.
// Result.Outcome tells the cases apart for logging and for the HTTP layer.
//
// # Concurrency
//
// A Service holds no mutable state. The snapshot is read once per request
// through SnapshotSource, so a concurrent refresh never mixes two
// snapshots inside one ranking.
//
// # Usage
//
//	svc, err := recommend.NewService(store, models, assigner, recommend.DefaultConfig(), logger)
//	res, err := svc.Recommend(ctx, recommend.Request{UserID: 42, Time: now, Liked: liked, Limit: 5})
package recommend
