// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcome labels for RecordAnalysis.
const (
	// AnalysisOK means a strategy produced a full result.
	AnalysisOK = "ok"

	// AnalysisFallback means every strategy failed and the minimal
	// result was returned instead.
	AnalysisFallback = "fallback"

	// AnalysisCached means the result came from the cache.
	AnalysisCached = "cached"

	// AnalysisError means the request failed outright.
	AnalysisError = "error"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"endpoint"})

	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "analyses_total",
		Help:      "Completed intent analyses by strategy, intent type and outcome",
	}, []string{"strategy", "intent", "status"})
)

// RecordAnalysis counts one completed analysis. Status is one of the
// Analysis* constants; strategy and intent may be empty on errors.
func RecordAnalysis(strategy, intent, status string) {
	analysesTotal.WithLabelValues(strategy, intent, status).Inc()
}
