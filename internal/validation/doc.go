// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package validation provides struct validation using go-playground/validator v10.
//
// The package holds one thread-safe validator instance configured for
// HTTP query parameters: field names in errors come from the `query` struct
// tag, and the custom `request_time` tag accepts the timestamp layouts the
// recommendation endpoint understands (see TimeLayouts).
//
// # Quick Start
//
//	type RecommendationParams struct {
//	    ID    int64  `query:"id" validate:"gte=0"`
//	    Time  string `query:"time" validate:"required,request_time"`
//	    Limit int    `query:"limit" validate:"gte=1,lte=100"`
//	}
//
//	if verr := validation.ValidateStruct(&params); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
//	    return
//	}
package validation
