// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

// Package retry runs I/O-bound operations with exponential backoff.
//
// It wraps feature loading and database calls only. The scoring pipeline is
// pure and never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tomtom215/postrec/internal/logging"
	"github.com/tomtom215/postrec/internal/metrics"
)

// Policy configures retries.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the wait before the second attempt.
	// Default: 500ms
	BaseDelay time.Duration

	// MaxDelay caps a single wait.
	// Default: 10s
	MaxDelay time.Duration

	// Multiplier grows the delay after every failed attempt.
	// Default: 2
	Multiplier float64

	// Jitter randomizes each delay by +/- this fraction. 0 disables it.
	// Default: 0.1
	Jitter float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2,
		Jitter:      0.1,
	}
}

// Validate checks that the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return errors.New("retry delays must not be negative")
	}
	if p.MaxDelay > 0 && p.BaseDelay > p.MaxDelay {
		return fmt.Errorf("base delay %v exceeds max delay %v", p.BaseDelay, p.MaxDelay)
	}
	if p.Multiplier != 0 && p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %v", p.Jitter)
	}
	return nil
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = p.Jitter
	b.Multiplier = p.Multiplier
	if b.Multiplier == 0 {
		b.Multiplier = 2
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	return b
}

// Permanent marks err as not worth retrying. Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, returns a Permanent error, the context is
// done, or MaxAttempts is reached. operation names the call in logs and in
// the retry_attempts_total metric.
func Do[T any](ctx context.Context, p Policy, operation string, fn func(context.Context) (T, error)) (T, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	attempts := 0
	op := func() (T, error) {
		attempts++
		return fn(ctx)
	}

	notify := func(err error, delay time.Duration) {
		metrics.RecordRetry(operation)
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempts).
			Int("max_attempts", p.MaxAttempts).
			Dur("delay", delay).
			Msg("retry attempt")
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		var zero T
		return zero, fmt.Errorf("%s failed after %d attempt(s): %w", operation, attempts, err)
	}
	return result, nil
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, operation string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
