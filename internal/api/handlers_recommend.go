// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomtom215/postrec/internal/database"
	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/recommend"
	"github.com/tomtom215/postrec/internal/validation"
)

// RecommendationParams are the query parameters of the recommendation
// endpoint after integer parsing.
type RecommendationParams struct {
	ID    int64  `query:"id"`
	Time  string `query:"time" validate:"required,request_time"`
	Limit int    `query:"limit" validate:"gte=1"`
}

// RecommendationResponse is the success body.
type RecommendationResponse struct {
	ExpGroup        string          `json:"exp_group"`
	Recommendations []database.Post `json:"recommendations"`
}

// Recommendations handles GET /post/recommendations/.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	params, verr := h.parseRecommendationParams(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	// Validated by the request_time tag.
	at, _ := validation.ParseTime(params.Time)

	ctx := r.Context()
	liked, err := h.posts.LikedPostIDs(ctx, params.ID)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	result, err := h.recommender.Recommend(ctx, recommend.Request{
		UserID: params.ID,
		Time:   at,
		Liked:  liked,
		Limit:  params.Limit,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidArgument) {
			respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to compute recommendations", err)
		return
	}

	if result.Outcome == recommend.OutcomeColdStart {
		respondError(w, r, http.StatusNotFound, CodeUserNotFound, fmt.Sprintf("User %d not found", params.ID), nil)
		return
	}

	posts, err := h.posts.Posts(ctx, result.PostIDs)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	logging.Ctx(ctx).Debug().
		Int64("user_id", params.ID).
		Str("exp_group", result.Group.String()).
		Str("outcome", string(result.Outcome)).
		Int("returned", len(posts)).
		Msg("Recommendations served")

	respondJSON(w, http.StatusOK, &RecommendationResponse{
		ExpGroup:        result.Group.String(),
		Recommendations: posts,
	})
}

// parseRecommendationParams converts and validates the query string.
func (h *Handler) parseRecommendationParams(r *http.Request) (RecommendationParams, *validation.RequestValidationError) {
	q := r.URL.Query()
	var params RecommendationParams

	rawID := q.Get("id")
	if rawID == "" {
		return params, validation.NewRequestValidationError("id", "required", nil, "id is required")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return params, validation.NewRequestValidationError("id", "int", rawID, "id must be an integer")
	}
	params.ID = id

	params.Limit = h.cfg.Limits.DefaultLimit
	if rawLimit := q.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			return params, validation.NewRequestValidationError("limit", "int", rawLimit, "limit must be an integer")
		}
		params.Limit = limit
	}

	params.Time = q.Get("time")

	if verr := validation.ValidateStruct(&params); verr != nil {
		return params, verr
	}

	if maxLimit := h.cfg.Limits.MaxLimit; maxLimit > 0 && params.Limit > maxLimit {
		return params, validation.NewRequestValidationError("limit", "lte", params.Limit,
			fmt.Sprintf("limit must be less than or equal to %d", maxLimit))
	}
	return params, nil
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if database.IsCircuitOpen(err) {
		respondError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "Post database temporarily unavailable", err)
		return
	}
	if ctxErr := r.Context().Err(); ctxErr != nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "Request cancelled", err)
		return
	}
	respondError(w, r, http.StatusServiceUnavailable, CodeDatabaseError, "Post database query failed", err)
}
