// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package services adapts service components to suture.Service.
//
//   - HTTPServerService: runs an *http.Server and shuts it down gracefully
//     when the supervisor stops it.
//   - SnapshotRefreshService: reloads the feature snapshot on a ticker and
//     swaps it in atomically. A failed reload keeps the previous snapshot.
package services
