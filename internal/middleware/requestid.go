// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/postrec/internal/logging"
)

// RequestIDHeader is read from requests and set on responses.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// RequestID middleware gives every request an ID and attaches it to the
// response header and the request context.
//
// Propagation:
//  1. An X-Request-ID from an upstream proxy is reused after sanitizing
//     (trimmed, truncated to 128 bytes, rejected if it has control characters)
//  2. Otherwise a UUID v4 is generated
//  3. The ID is echoed in the X-Request-ID response header
//  4. The context carries the ID and a fresh 8-character correlation ID, so
//     logging.Ctx(ctx) and the recommender's request logger tag every event
//
// Example usage:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := sanitizeRequestID(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID stored by RequestID. It returns ""
// outside a request handled by the middleware.
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}

// sanitizeRequestID drops IDs with control characters and truncates long ones.
func sanitizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > maxRequestIDLen {
		id = id[:maxRequestIDLen]
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7F {
			return ""
		}
	}
	return id
}
