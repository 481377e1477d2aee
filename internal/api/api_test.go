// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/postrec/internal/database"
	"github.com/tomtom215/postrec/internal/experiment"
	"github.com/tomtom215/postrec/internal/recommend"
)

type fakeRecommender struct {
	mu     sync.Mutex
	result recommend.Result
	err    error
	got    []recommend.Request
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.result, f.err
}

func (f *fakeRecommender) last() recommend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got[len(f.got)-1]
}

type fakeStore struct {
	liked    map[int64]struct{}
	likedErr error
	posts    map[int64]database.Post
	postsErr error
	pingErr  error
}

func (f *fakeStore) LikedPostIDs(context.Context, int64) (map[int64]struct{}, error) {
	return f.liked, f.likedErr
}

func (f *fakeStore) Posts(_ context.Context, ids []int64) ([]database.Post, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	out := make([]database.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) BreakerState() string { return "closed" }

type fakeSnapshots bool

func (f fakeSnapshots) Ready() bool { return bool(f) }

func newTestStore() *fakeStore {
	return &fakeStore{
		liked: map[int64]struct{}{9: {}},
		posts: map[int64]database.Post{
			1: {ID: 1, Text: "first", Topic: "covid"},
			2: {ID: 2, Text: "second", Topic: "sport"},
			3: {ID: 3, Text: "third", Topic: "movie"},
		},
	}
}

func newTestRouter(t *testing.T, rec Recommender, store PostStore, ready bool, mwCfg *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	h, err := NewHandler(rec, store, fakeSnapshots(ready), HandlerConfig{Limits: recommend.Config{DefaultLimit: 5, MaxLimit: 50}})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if mwCfg == nil {
		mwCfg = &ChiMiddlewareConfig{CORSAllowedOrigins: []string{"*"}, RateLimitDisabled: true}
	}
	return NewRouter(h, NewChiMiddleware(mwCfg)).Setup()
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestRecommendations_Success(t *testing.T) {
	t.Parallel()

	fr := &fakeRecommender{result: recommend.Result{
		PostIDs: []int64{3, 1, 2},
		Group:   experiment.Test,
		Outcome: recommend.OutcomeRanked,
	}}
	h := newTestRouter(t, fr, newTestStore(), true, nil)

	rec := doGet(t, h, "/post/recommendations/?id=200&time=2021-12-06T14:30:00&limit=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body RecommendationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ExpGroup != "test" {
		t.Errorf("exp_group = %q, want test", body.ExpGroup)
	}
	var ids []int64
	for _, p := range body.Recommendations {
		ids = append(ids, p.ID)
	}
	if fmt.Sprint(ids) != "[3 1 2]" {
		t.Errorf("ids = %v, want ranking order [3 1 2]", ids)
	}
	if body.Recommendations[0].Topic != "movie" || body.Recommendations[0].Text != "third" {
		t.Errorf("first post = %+v", body.Recommendations[0])
	}

	req := fr.last()
	if req.UserID != 200 || req.Limit != 3 {
		t.Errorf("request = %+v", req)
	}
	if !req.Time.Equal(time.Date(2021, 12, 6, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("time = %v", req.Time)
	}
	if _, ok := req.Liked[9]; !ok {
		t.Errorf("liked posts not forwarded: %v", req.Liked)
	}
}

func TestRecommendations_DefaultLimitAndNoSlash(t *testing.T) {
	t.Parallel()

	fr := &fakeRecommender{result: recommend.Result{Group: experiment.Control, Outcome: recommend.OutcomeRanked, PostIDs: []int64{1}}}
	h := newTestRouter(t, fr, newTestStore(), true, nil)

	rec := doGet(t, h, "/post/recommendations?id=1&time=2021-12-06%2014:30:00")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := fr.last().Limit; got != 5 {
		t.Errorf("limit = %d, want default 5", got)
	}
}

func TestRecommendations_EmptyListIsNotNull(t *testing.T) {
	t.Parallel()

	fr := &fakeRecommender{result: recommend.Result{
		PostIDs: []int64{},
		Group:   experiment.Control,
		Outcome: recommend.OutcomeAllExcluded,
	}}
	h := newTestRouter(t, fr, newTestStore(), true, nil)

	rec := doGet(t, h, "/post/recommendations/?id=1&time=2021-12-06T14:30:00")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `{"exp_group":"control","recommendations":[]}`
	if rec.Body.String() != want {
		t.Errorf("body = %s, want %s", rec.Body.String(), want)
	}
}

func TestRecommendations_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"missing id", "time=2021-12-06T14:30:00", "id"},
		{"non-integer id", "id=abc&time=2021-12-06T14:30:00", "id"},
		{"missing time", "id=1", "time"},
		{"bad time", "id=1&time=tomorrow", "time"},
		{"zero limit", "id=1&time=2021-12-06T14:30:00&limit=0", "limit"},
		{"negative limit", "id=1&time=2021-12-06T14:30:00&limit=-3", "limit"},
		{"non-integer limit", "id=1&time=2021-12-06T14:30:00&limit=many", "limit"},
		{"limit above max", "id=1&time=2021-12-06T14:30:00&limit=51", "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fr := &fakeRecommender{}
			h := newTestRouter(t, fr, newTestStore(), true, nil)

			rec := doGet(t, h, "/post/recommendations/?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeError(t, rec)
			if body.Code != CodeValidation {
				t.Errorf("code = %q", body.Code)
			}
			if body.Details["field"] != tt.wantField {
				t.Errorf("details = %v, want field %s", body.Details, tt.wantField)
			}
			if len(fr.got) != 0 {
				t.Error("recommender must not be called on invalid input")
			}
		})
	}
}

func TestRecommendations_ColdStart(t *testing.T) {
	t.Parallel()

	fr := &fakeRecommender{result: recommend.Result{
		PostIDs: []int64{},
		Group:   experiment.Control,
		Outcome: recommend.OutcomeColdStart,
	}}
	h := newTestRouter(t, fr, newTestStore(), true, nil)

	rec := doGet(t, h, "/post/recommendations/?id=77&time=2021-12-06T14:30:00")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != CodeUserNotFound || body.Message != "User 77 not found" {
		t.Errorf("error = %+v", body)
	}
}

func TestRecommendations_Failures(t *testing.T) {
	t.Parallel()

	openErr := fmt.Errorf("liked_posts failed after 1 attempt(s): %w", gobreaker.ErrOpenState)

	tests := []struct {
		name       string
		store      func() *fakeStore
		recErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "liked query fails",
			store:      func() *fakeStore { s := newTestStore(); s.likedErr = errors.New("connection refused"); return s },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeDatabaseError,
		},
		{
			name:       "breaker open",
			store:      func() *fakeStore { s := newTestStore(); s.likedErr = openErr; return s },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeServiceUnavailable,
		},
		{
			name:       "post metadata fails",
			store:      func() *fakeStore { s := newTestStore(); s.postsErr = errors.New("timeout"); return s },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeDatabaseError,
		},
		{
			name:       "recommender rejects argument",
			store:      newTestStore,
			recErr:     fmt.Errorf("%w: limit must be positive", recommend.ErrInvalidArgument),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "recommender fails",
			store:      newTestStore,
			recErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fr := &fakeRecommender{
				result: recommend.Result{PostIDs: []int64{1}, Group: experiment.Control, Outcome: recommend.OutcomeRanked},
				err:    tt.recErr,
			}
			h := newTestRouter(t, fr, tt.store(), true, nil)

			rec := doGet(t, h, "/post/recommendations/?id=1&time=2021-12-06T14:30:00")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		ready      bool
		pingErr    error
		wantStatus int
		wantState  string
	}{
		{"live", "/health/live", false, nil, http.StatusOK, "alive"},
		{"ready", "/health/ready", true, nil, http.StatusOK, "ready"},
		{"features missing", "/health/ready", false, nil, http.StatusServiceUnavailable, "not ready"},
		{"database down", "/health/ready", true, errors.New("dial tcp: refused"), http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newTestStore()
			store.pingErr = tt.pingErr
			h := newTestRouter(t, &fakeRecommender{}, store, tt.ready, nil)

			rec := doGet(t, h, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body HealthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.wantState {
				t.Errorf("status = %q, want %q", body.Status, tt.wantState)
			}
		})
	}
}

func TestRouter_MetricsAndNotFound(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &fakeRecommender{}, newTestStore(), true, nil)

	if rec := doGet(t, h, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}

	rec := doGet(t, h, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != CodeNotFound {
		t.Errorf("code = %q", body.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/post/recommendations/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestRouter_RequestIDAndSecurityHeaders(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &fakeRecommender{}, newTestStore(), true, nil)

	rec := doGet(t, h, "/health/live")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	fr := &fakeRecommender{result: recommend.Result{PostIDs: []int64{1}, Group: experiment.Control, Outcome: recommend.OutcomeRanked}}
	h := newTestRouter(t, fr, newTestStore(), true, &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  1,
		RateLimitWindow:    time.Minute,
	})

	target := "/post/recommendations/?id=1&time=2021-12-06T14:30:00"
	if rec := doGet(t, h, target); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := doGet(t, h, target)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != CodeRateLimited {
		t.Errorf("code = %q", body.Code)
	}

	// Health probes are not rate limited.
	for i := 0; i < 3; i++ {
		if rec := doGet(t, h, "/health/live"); rec.Code != http.StatusOK {
			t.Fatalf("health status = %d", rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{TrustedProxies: []string{"10.0.0.1"}})

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct client", "192.0.2.10:5555", "", "", "192.0.2.10"},
		{"untrusted peer ignores xff", "192.0.2.10:5555", "203.0.113.7", "", "192.0.2.10"},
		{"trusted proxy uses first xff", "10.0.0.1:4000", "203.0.113.7, 10.0.0.1", "", "203.0.113.7"},
		{"trusted proxy invalid xff falls back to real ip", "10.0.0.1:4000", "garbage", "203.0.113.8", "203.0.113.8"},
		{"trusted proxy without headers", "10.0.0.1:4000", "", "", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := m.clientIP(r); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewHandler_Validation(t *testing.T) {
	t.Parallel()

	limits := recommend.DefaultConfig()
	if _, err := NewHandler(nil, newTestStore(), fakeSnapshots(true), HandlerConfig{Limits: limits}); err == nil {
		t.Error("expected error for nil recommender")
	}
	if _, err := NewHandler(&fakeRecommender{}, newTestStore(), fakeSnapshots(true), HandlerConfig{}); err == nil {
		t.Error("expected error for zero limits")
	}
	h, err := NewHandler(&fakeRecommender{}, newTestStore(), fakeSnapshots(true), HandlerConfig{Limits: limits})
	if err != nil {
		t.Fatal(err)
	}
	if h.cfg.ReadyTimeout != 2*time.Second {
		t.Errorf("ReadyTimeout = %v", h.cfg.ReadyTimeout)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
