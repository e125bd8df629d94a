// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket limiter for bounding request rates.
//
// It wraps golang.org/x/time/rate with a requests-per-window
// constructor matching how limits are configured for this service
// (e.g. 100 requests per 60s).
//
// Thread Safety: Safe for concurrent use.
type RateLimiter struct {
	limiter  *rate.Limiter
	requests float64
	per      time.Duration
}

// NewRateLimiter creates a token bucket allowing requests per window.
//
// Inputs:
//   - requests: Number of requests allowed per window. Must be positive.
//   - per: Window duration. Must be positive.
//
// Outputs:
//   - *RateLimiter: Limiter with burst capacity of ceil(requests).
//
// Tokens refill continuously rather than per-window, so short bursts up
// to the full allowance are permitted after idle periods.
func NewRateLimiter(requests float64, per time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if per <= 0 {
		per = time.Second
	}

	limit := rate.Limit(requests / per.Seconds())
	burst := int(math.Ceil(requests))

	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, burst),
		requests: requests,
		per:      per,
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (l *RateLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until a token is available or the context is done.
//
// Outputs:
//   - error: ErrRateLimited-wrapped failure if the wait cannot complete.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}

// RetryAfter estimates how long a rejected caller should wait before
// trying again. Used to populate the Retry-After response header.
func (l *RateLimiter) RetryAfter() time.Duration {
	limit := l.limiter.Limit()
	if limit <= 0 {
		return l.per
	}
	interval := time.Duration(float64(time.Second) / float64(limit))
	if interval < time.Second {
		return time.Second
	}
	return interval
}

// Limit returns the configured requests-per-window description.
func (l *RateLimiter) Limit() (requests float64, per time.Duration) {
	return l.requests, l.per
}
