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

// DefaultUnhealthyThreshold is the consecutive failure count at which a
// tracked component is reported unhealthy.
const DefaultUnhealthyThreshold = 3

// HealthStatus is a point-in-time view of one tracked component.
type HealthStatus struct {
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastChecked         time.Time `json:"last_checked"`
	LastError           string    `json:"last_error,omitempty"`
}

// healthEntry is the mutable tracking record for one component.
type healthEntry struct {
	consecutiveFailures int
	lastChecked         time.Time
	lastError           string
}

// HealthChecker tracks consecutive failures per named component.
//
// Components that have never been observed are reported healthy; the
// checker only marks a component unhealthy after threshold consecutive
// failures, and a single success clears the count.
//
// Thread Safety: Safe for concurrent use.
type HealthChecker struct {
	threshold int
	entries   map[string]*healthEntry
	mu        sync.RWMutex
}

// NewHealthChecker creates a health checker.
//
// Inputs:
//   - threshold: Consecutive failures before unhealthy. Values < 1 use
//     DefaultUnhealthyThreshold.
func NewHealthChecker(threshold int) *HealthChecker {
	if threshold < 1 {
		threshold = DefaultUnhealthyThreshold
	}
	return &HealthChecker{
		threshold: threshold,
		entries:   make(map[string]*healthEntry),
	}
}

// RecordSuccess marks a successful observation of the named component.
func (h *HealthChecker) RecordSuccess(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(name)
	e.consecutiveFailures = 0
	e.lastChecked = time.Now()
	e.lastError = ""
}

// RecordFailure marks a failed observation of the named component.
func (h *HealthChecker) RecordFailure(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(name)
	e.consecutiveFailures++
	e.lastChecked = time.Now()
	if err != nil {
		e.lastError = err.Error()
	}
}

// Healthy reports whether the named component is currently healthy.
// Unknown names are healthy.
func (h *HealthChecker) Healthy(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entries[name]
	if !ok {
		return true
	}
	return e.consecutiveFailures < h.threshold
}

// Snapshot returns the status of every tracked component.
func (h *HealthChecker) Snapshot() map[string]HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]HealthStatus, len(h.entries))
	for name, e := range h.entries {
		out[name] = HealthStatus{
			Healthy:             e.consecutiveFailures < h.threshold,
			ConsecutiveFailures: e.consecutiveFailures,
			LastChecked:         e.lastChecked,
			LastError:           e.lastError,
		}
	}
	return out
}

// entry returns the record for name, creating it if needed.
// Must be called with write lock held.
func (h *HealthChecker) entry(name string) *healthEntry {
	e, ok := h.entries[name]
	if !ok {
		e = &healthEntry{}
		h.entries[name] = e
	}
	return e
}
