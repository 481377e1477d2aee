// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package recommend

import "fmt"

// Config contains request limits. The HTTP layer applies them; the
// service itself only rejects non-positive limits.
type Config struct {
	// DefaultLimit is used by callers that omit a limit.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit is the largest limit a client may ask for. Zero means no cap.
	MaxLimit int `json:"max_limit"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 5,
		MaxLimit:     100,
	}
}

// Validate checks that the limits are usable.
func (c Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < 0 {
		return fmt.Errorf("max_limit must not be negative, got %d", c.MaxLimit)
	}
	if c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}
