// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package metrics provides Prometheus metrics for the recommendation service.

All collectors are registered on the default registry through promauto and are
exposed at /metrics in the Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests

Recommendations:
  - recommendations_total{group, outcome}
  - recommendation_duration_seconds{group}
  - recommendation_candidates
  - model_scoring_errors_total{group}

Feature snapshots:
  - feature_snapshot_rows{table}
  - feature_snapshot_loaded_timestamp_seconds
  - feature_snapshot_load_duration_seconds

Database and resilience:
  - db_query_duration_seconds{operation}
  - db_query_errors_total{operation}
  - retry_attempts_total{operation}
  - circuit_breaker_state{name} (0 closed, 1 half-open, 2 open)
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_transitions_total{name, from, to}
  - circuit_breaker_consecutive_failures{name}
  - post_cache_hits_total, post_cache_misses_total

The endpoint label is the chi route pattern, never the raw URL path, so label
cardinality stays bounded.
*/
package metrics
