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
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}

	if rl.Allow() {
		t.Error("request beyond burst should be rejected")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	// 100 requests per 100ms = 1 token per ms
	rl := NewRateLimiter(100, 100*time.Millisecond)

	// Drain the bucket
	for rl.Allow() {
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow() {
		t.Error("tokens should refill after waiting")
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)

	// Consume the only token
	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if err == nil {
		t.Fatal("expected error waiting with exhausted bucket")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_DefendsAgainstBadConfig(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if !rl.Allow() {
		t.Error("limiter with corrected config should allow at least one request")
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	rl := NewRateLimiter(60, time.Minute)
	if got := rl.RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter() = %v, want 1s for 60/min", got)
	}

	// Sub-second intervals round up to 1s
	fast := NewRateLimiter(1000, time.Second)
	if got := fast.RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter() = %v, want 1s floor", got)
	}
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(100, time.Minute)
	requests, per := rl.Limit()
	if requests != 100 || per != time.Minute {
		t.Errorf("Limit() = %v/%v, want 100/1m", requests, per)
	}
}
