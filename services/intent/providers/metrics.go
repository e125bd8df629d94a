// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

// Call outcome labels.
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeCanceled = "canceled"
)

var (
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "provider_calls_total",
		Help:      "LLM generation calls by provider and outcome",
	}, []string{"provider", "outcome"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "provider_latency_seconds",
		Help:      "LLM generation call latency by provider",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "circuit_state",
		Help:      "Circuit breaker state by provider (0=closed, 1=open, 2=half-open)",
	}, []string{"provider"})
)

// recordCall counts one completed generation call and its latency.
func recordCall(provider, outcome string, seconds float64) {
	providerCalls.WithLabelValues(provider, outcome).Inc()
	providerLatency.WithLabelValues(provider).Observe(seconds)
}

// observeBreaker publishes the breaker's current state. Called after
// anything that can transition it.
func observeBreaker(provider string, cb *resilience.CircuitBreaker) {
	if cb == nil {
		return
	}
	circuitState.WithLabelValues(provider).Set(float64(cb.State()))
}
