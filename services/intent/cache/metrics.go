// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cache tier labels for metric attribution.
const (
	tierLocal  = "local"
	tierShared = "shared"
)

// Package-level meter for cache operations.
var meter = otel.Meter("aleutian.intent.cache")

// Metrics for cache operations.
var (
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheEvictions metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"intent_cache_hits_total",
			metric.WithDescription("Total number of analysis cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"intent_cache_misses_total",
			metric.WithDescription("Total number of analysis cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheEvictions, err = meter.Int64Counter(
			"intent_cache_evictions_total",
			metric.WithDescription("Total number of local tier evictions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCacheHit records a cache hit metric for the given tier.
func recordCacheHit(ctx context.Context, tier string) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// recordCacheMiss records a cache miss metric for the given tier.
func recordCacheMiss(ctx context.Context, tier string) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// recordCacheEviction records an eviction metric for the given tier.
func recordCacheEviction(ctx context.Context, tier string) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheEvictions.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}
