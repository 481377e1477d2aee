// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package middleware provides HTTP middleware shared by the API router.

Both middlewares use chi's func(http.Handler) http.Handler shape:

  - RequestID: takes X-Request-ID from the client or generates a UUID v4,
    echoes it in the response and stores it in the logging context so every
    log line of the request carries request_id and correlation_id.
  - PrometheusMetrics: records request count, latency and in-flight requests.
    The endpoint label is the chi route pattern, not the raw path, so query
    strings and path parameters do not blow up label cardinality.

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
