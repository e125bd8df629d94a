// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resilience provides the fault-tolerance primitives used for
// LLM provider calls: retry with exponential backoff, circuit breaking,
// rate limiting, timeouts, and health tracking.
package resilience

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors for the resilience package.
var (
	// Provider errors
	ErrProviderUnavailable = errors.New("provider is unavailable")
	ErrProviderAuth        = errors.New("provider rejected credentials")
	ErrProviderRateLimited = errors.New("provider rate limit exceeded")
	ErrProviderTimeout     = errors.New("provider request timed out")
	ErrMalformedOutput     = errors.New("provider returned malformed output")
	ErrNoProviders         = errors.New("no providers available")

	// Protection errors
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrRateLimited = errors.New("request rate limit exceeded")

	// Configuration errors
	ErrInvalidRetryConfig = errors.New("invalid retry configuration")
)

// IsRetryable determines whether an error should trigger another attempt.
//
// Inputs:
//   - err: The error to classify. May be nil.
//
// Outputs:
//   - bool: True if a retry could plausibly succeed.
//
// Unavailability, provider rate limits, timeouts, and transient network
// failures are retryable. Auth rejections, malformed output, open
// circuits, and context cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Caller gave up - never retry
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrMalformedOutput) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrRateLimited) {
		return false
	}

	if errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrProviderRateLimited) ||
		errors.Is(err, ErrProviderTimeout) {
		return true
	}

	// Deadline expiry on a single attempt - retryable, the next attempt
	// gets a fresh per-call deadline
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Connection errors (server might be starting/restarting)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsPermanent determines whether an error disqualifies a provider for
// the remainder of the process lifetime.
//
// Auth rejections are permanent: retrying with the same credentials
// cannot succeed, so the provider is latched out of selection.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrProviderAuth)
}
