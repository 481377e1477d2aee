// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/postrec/internal/cache"
	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/metrics"
	"github.com/tomtom215/postrec/internal/retry"
)

// Post is the metadata returned to clients for a recommended post.
type Post struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Retry   retry.Policy
	Breaker BreakerConfig

	// CacheSize and CacheTTL size the post metadata cache. A zero size
	// disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// LikeAction is the feed_action.action value that marks a like.
	LikeAction string
}

// DefaultStoreConfig returns the production store settings.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Retry:      retry.DefaultPolicy(),
		Breaker:    DefaultBreakerConfig(),
		CacheSize:  10000,
		CacheTTL:   10 * time.Minute,
		LikeAction: "like",
	}
}

// Store reads liked posts and post metadata. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	cfg     StoreConfig
	breaker *breaker
	posts   *cache.LRU[int64, Post]
	logger  zerolog.Logger
}

// NewStore wraps db.
func NewStore(db *sql.DB, cfg StoreConfig) *Store {
	if cfg.LikeAction == "" {
		cfg.LikeAction = "like"
	}
	s := &Store{
		db:      db,
		cfg:     cfg,
		breaker: newBreaker("postgres", cfg.Breaker),
		logger:  logging.WithComponent("store"),
	}
	if cfg.CacheSize > 0 {
		s.posts = cache.NewLRU[int64, Post](cfg.CacheSize, cfg.CacheTTL)
	}
	return s
}

const likedPostsQuery = `SELECT DISTINCT post_id FROM feed_action WHERE user_id = $1 AND action = $2`

// LikedPostIDs returns the set of posts userID has liked.
func (s *Store) LikedPostIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	return withResilience(ctx, s, "liked_posts", func(ctx context.Context) (map[int64]struct{}, error) {
		rows, err := s.db.QueryContext(ctx, likedPostsQuery, userID, s.cfg.LikeAction)
		if err != nil {
			return nil, err
		}
		defer closeQuietly(rows)

		liked := make(map[int64]struct{})
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			liked[id] = struct{}{}
		}
		return liked, rows.Err()
	})
}

// Posts returns metadata for ids in the same order. IDs without a post row
// are skipped.
func (s *Store) Posts(ctx context.Context, ids []int64) ([]Post, error) {
	if len(ids) == 0 {
		return []Post{}, nil
	}

	found := make(map[int64]Post, len(ids))
	var missing []int64
	for _, id := range ids {
		if s.posts != nil {
			if p, ok := s.posts.Get(id); ok {
				metrics.RecordPostCache(true)
				found[id] = p
				continue
			}
			metrics.RecordPostCache(false)
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		loaded, err := withResilience(ctx, s, "posts_by_id", func(ctx context.Context) ([]Post, error) {
			return s.queryPosts(ctx, missing)
		})
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			found[p.ID] = p
			if s.posts != nil {
				s.posts.Add(p.ID, p)
			}
		}
	}

	out := make([]Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		} else {
			s.logger.Warn().Int64("post_id", id).Msg("Recommended post has no metadata row")
		}
	}
	return out, nil
}

func (s *Store) queryPosts(ctx context.Context, ids []int64) ([]Post, error) {
	query, args := postsByIDQuery(ids)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	posts := make([]Post, 0, len(ids))
	for rows.Next() {
		var (
			p     Post
			text  sql.NullString
			topic sql.NullString
		)
		if err := rows.Scan(&p.ID, &text, &topic); err != nil {
			return nil, err
		}
		p.Text, p.Topic = text.String, topic.String
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// postsByIDQuery builds SELECT ... WHERE id IN ($1, ..., $n).
func postsByIDQuery(ids []int64) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT id, text, topic FROM post WHERE id IN (")
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i + 1))
		args[i] = id
	}
	b.WriteByte(')')
	return b.String(), args
}

// Ping checks the database through the breaker without retrying.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.breaker.execute(func() (any, error) {
		return nil, s.db.PingContext(ctx)
	})
	return err
}

// BreakerState returns the circuit breaker state for health output.
func (s *Store) BreakerState() string {
	return s.breaker.State()
}

// withResilience runs fn through the breaker inside the retry policy and
// records query metrics per attempt.
func withResilience[T any](ctx context.Context, s *Store, operation string, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, s.cfg.Retry, operation, func(ctx context.Context) (T, error) {
		start := time.Now()
		result, err := s.breaker.execute(func() (any, error) {
			return fn(ctx)
		})
		metrics.RecordDBQuery(operation, time.Since(start), err)

		var zero T
		if err != nil {
			if isRejection(err) || errors.Is(err, context.Canceled) {
				return zero, retry.Permanent(err)
			}
			return zero, err
		}
		typed, ok := result.(T)
		if !ok {
			return zero, retry.Permanent(fmt.Errorf("circuit breaker: unexpected result type %T", result))
		}
		return typed, nil
	})
}
