// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package main is the entry point for the postrec server.

postrec ranks posts for a user with one of two models picked by a
deterministic A/B split, and serves the ranking over HTTP.

# Startup

 1. .env (if present) is loaded into the environment
 2. Configuration: koanf defaults, optional config.yaml, environment
 3. Logging: zerolog with the configured level and format
 4. Database: Postgres via pgx (post, feed_action)
 5. Features: user and post tables loaded into an in-memory snapshot
 6. Models: control and test artifacts
 7. Supervisor tree: HTTP server and, if configured, snapshot refresh

Steps 4 to 6 are fatal on failure; the service never starts half ready.

# Supervisor Tree

	postrec
	├── data-layer
	│   └── snapshot-refresh (FEATURES_REFRESH_INTERVAL > 0)
	└── api-layer
	    └── http-server

# Configuration

The keys of the original deployment keep working:

	DATABASE_URL=postgres://user:pass@db:5432/feed
	MODEL_CONTROL_PATH=/models/control.json
	MODEL_TEST_PATH=/models/test.json
	AB_TEST_ENABLED=true
	SALT=salt
	GROUP_A_PERCENTAGE=50
	LOG_LEVEL=info
	LOG_FORMAT=json

Features can come from a separate source, for example parquet exports
read through DuckDB:

	FEATURES_DRIVER=duckdb
	USER_FEATURES_QUERY="SELECT * FROM read_parquet('/data/users.parquet')"
	POST_FEATURES_QUERY="SELECT * FROM read_parquet('/data/posts.parquet')"

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
server.shutdown_timeout before the process exits.
*/
package main
