// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package config provides centralized configuration management for postrec.

# Configuration Sources

Configuration is layered with Koanf v2, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/postrec/config.yaml
 3. Environment variables, through an explicit name map

A .env file in the working directory is loaded into the process
environment by cmd/server before Load runs.

# Environment Variables

Service:
  - DATABASE_URL: Postgres DSN for post and feed_action (required)
  - MODEL_CONTROL_PATH: control group model artifact (required)
  - MODEL_TEST_PATH: test group model artifact (required)
  - MODEL_CONTROL_OUTPUT, MODEL_TEST_OUTPUT: raw or probability
  - AB_TEST_ENABLED: split users between models (default: true)
  - SALT: experiment hash salt (default: salt)
  - GROUP_A_PERCENTAGE: share of users in control, 0-100 (default: 50)

Features:
  - FEATURES_DRIVER, FEATURES_URL: feature source, defaults to the database
  - USER_FEATURES_QUERY, POST_FEATURES_QUERY: feature table queries
  - FEATURES_CHUNK_SIZE: rows between progress logs (default: 200000)
  - FEATURES_REFRESH_INTERVAL: periodic reload, 0 disables (default: 0)

HTTP Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8000)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT

Security:
  - CORS_ORIGINS: comma-separated allowed origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: include caller file:line (default: false)

# Usage

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
