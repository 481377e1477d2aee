// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

/*
Package cache provides a thread-safe generic LRU cache with TTL support.

The post store uses it to keep post metadata (text and topic) in memory so
repeated recommendations of popular posts do not hit the database.

# Behavior

  - O(1) Get, Add and Remove
  - O(1) eviction of the least recently used entry at capacity
  - Lazy expiration: expired entries are dropped when touched, or in bulk
    by CleanupExpired
  - Hit and miss counters for metrics

# Usage

	posts := cache.NewLRU[int64, Post](10000, 10*time.Minute)
	posts.Add(42, post)
	if p, ok := posts.Get(42); ok {
		// ...
	}
*/
package cache
