// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package database is the data layer between the service and its SQL
// sources.
//
// # Drivers
//
// Two database/sql drivers are supported and selected by Config.Driver:
//
//   - postgres: the production database holding post, user and
//     feed_action, opened through the pgx stdlib adapter
//   - duckdb: embedded analytics database, used to read feature tables
//     from local parquet or csv files and as the in-memory database in
//     tests
//
// All queries use $n placeholders, which both drivers accept.
//
// # Resilience
//
// Store calls go through a retry policy and a circuit breaker. Retries
// absorb short outages; the breaker fails fast while the database is down.
// Breaker rejections are not retried.
//
// # Files
//
//   - connection.go: driver selection, pool settings, startup ping
//   - breaker.go: gobreaker wiring and metrics
//   - store.go: liked posts and post metadata queries with an LRU cache
package database
