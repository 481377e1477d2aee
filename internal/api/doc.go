// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package api provides the HTTP layer of the recommendation service.

Routes:

  - GET /post/recommendations/?id=<user>&time=<timestamp>&limit=<n>
    Returns {"exp_group": "...", "recommendations": [{"id", "text", "topic"}]}.
  - GET /health/live and GET /health/ready for probes.
  - GET /metrics for Prometheus.

Errors share one envelope:

	{"error": {"code": "VALIDATION_ERROR", "message": "limit must be ...", "details": {...}}}

Status mapping for the recommendation endpoint:

  - 400: malformed or out-of-range query parameters
  - 404: the user has no feature row (cold start)
  - 503: the post database is unavailable or its circuit breaker is open
  - 500: anything unexpected

An empty ranking that is not a cold start (every post liked, or the model
failed) is a 200 with an empty list.

The router uses chi with go-chi/cors and go-chi/httprate. The rate limit key
is the client IP, taken from X-Forwarded-For only when the direct peer is a
configured trusted proxy.
*/
package api
