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
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed allows requests through normally.
	CircuitClosed CircuitState = iota

	// CircuitOpen rejects all requests immediately.
	CircuitOpen

	// CircuitHalfOpen allows a single probe to test recovery.
	CircuitHalfOpen
)

// String returns the human-readable name for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is the duration to wait before transitioning from open to half-open.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxProbes is the max concurrent probes allowed in half-open state.
	// Default: 1
	HalfOpenMaxProbes int

	// SuccessThreshold is the number of consecutive successes in half-open to close.
	// Default: 1
	SuccessThreshold int

	// OnStateChange, if set, is called after each state transition.
	// Invoked without internal locks held; safe to call breaker methods from it.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible defaults for the circuit breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
		SuccessThreshold:  1,
	}
}

// stateChange records a pending transition for hook delivery.
type stateChange struct {
	from CircuitState
	to   CircuitState
}

// CircuitBreaker implements the circuit breaker pattern for fault tolerance.
//
// The circuit breaker has three states:
// - Closed: Normal operation, requests pass through
// - Open: Failure threshold exceeded, requests are rejected immediately
// - Half-Open: Testing recovery, one probe allowed at a time
//
// Thread Safety: Safe for concurrent use.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	state                CircuitState
	consecutiveFailures  int
	consecutiveSuccesses int
	halfOpenProbes       int
	lastFailureTime      time.Time
	lastStateChange      time.Time

	mu sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
//
// Inputs:
//   - config: Configuration for thresholds and timeouts.
//
// Outputs:
//   - *CircuitBreaker: A new circuit breaker in closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config:          config,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Allow checks if a request should be allowed through.
//
// Returns true if the request is allowed, false if it should be rejected.
// An open circuit whose reset timeout has elapsed moves to half-open and
// admits the caller as the probe; further callers are rejected until the
// probe resolves.
//
// Outputs:
//   - bool: True if request is allowed.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	now := time.Now()
	allowed := false
	var change *stateChange

	switch cb.state {
	case CircuitClosed:
		allowed = true

	case CircuitOpen:
		if now.Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			change = cb.transitionTo(CircuitHalfOpen, now)
			cb.halfOpenProbes = 1
			allowed = true
		}

	case CircuitHalfOpen:
		if cb.halfOpenProbes < cb.config.HalfOpenMaxProbes {
			cb.halfOpenProbes++
			allowed = true
		}
	}

	cb.mu.Unlock()
	cb.notify(change)
	return allowed
}

// RecordSuccess records a successful request.
//
// In half-open state, consecutive successes may close the circuit.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	now := time.Now()
	var change *stateChange

	switch cb.state {
	case CircuitClosed:
		cb.consecutiveFailures = 0

	case CircuitHalfOpen:
		cb.consecutiveSuccesses++
		cb.consecutiveFailures = 0

		if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
			change = cb.transitionTo(CircuitClosed, now)
		}
	}

	cb.mu.Unlock()
	cb.notify(change)
}

// RecordFailure records a failed request.
//
// Consecutive failures may open the circuit. Any failure in half-open
// state reopens it immediately.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	now := time.Now()
	cb.lastFailureTime = now
	var change *stateChange

	switch cb.state {
	case CircuitClosed:
		cb.consecutiveFailures++
		cb.consecutiveSuccesses = 0

		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			change = cb.transitionTo(CircuitOpen, now)
		}

	case CircuitHalfOpen:
		change = cb.transitionTo(CircuitOpen, now)
	}

	cb.mu.Unlock()
	cb.notify(change)
}

// State returns the current circuit state.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns current circuit breaker statistics.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:                cb.state,
		ConsecutiveFailures:  cb.consecutiveFailures,
		ConsecutiveSuccesses: cb.consecutiveSuccesses,
		LastFailureTime:      cb.lastFailureTime,
		LastStateChange:      cb.lastStateChange,
	}
}

// Reset resets the circuit breaker to closed state.
//
// This is primarily for testing or manual intervention.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()

	var change *stateChange
	if cb.state != CircuitClosed {
		change = cb.transitionTo(CircuitClosed, time.Now())
	}
	cb.consecutiveFailures = 0

	cb.mu.Unlock()
	cb.notify(change)
}

// transitionTo changes the circuit state.
// Must be called with lock held.
func (cb *CircuitBreaker) transitionTo(newState CircuitState, now time.Time) *stateChange {
	change := &stateChange{from: cb.state, to: newState}

	cb.state = newState
	cb.lastStateChange = now
	cb.consecutiveSuccesses = 0
	cb.halfOpenProbes = 0

	if newState == CircuitClosed {
		cb.consecutiveFailures = 0
	}

	return change
}

// notify delivers a state change to the configured hook, if any.
func (cb *CircuitBreaker) notify(change *stateChange) {
	if change == nil || cb.config.OnStateChange == nil {
		return
	}
	cb.config.OnStateChange(change.from, change.to)
}

// CircuitBreakerStats contains circuit breaker statistics.
type CircuitBreakerStats struct {
	State                CircuitState
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastFailureTime      time.Time
	LastStateChange      time.Time
}

// TimeSinceLastFailure returns the duration since the last failure.
func (s CircuitBreakerStats) TimeSinceLastFailure() time.Duration {
	if s.LastFailureTime.IsZero() {
		return 0
	}
	return time.Since(s.LastFailureTime)
}

// TimeSinceStateChange returns the duration since the last state change.
func (s CircuitBreakerStats) TimeSinceStateChange() time.Duration {
	return time.Since(s.LastStateChange)
}
