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
	"time"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// TieredCache composes the local LRU tier with the optional shared tier.
//
// Description:
//
//	Lookups check the local tier first, then the shared tier; a shared
//	hit is promoted into the local tier so subsequent lookups stay
//	in-process. Writes go to both tiers. The shared tier may be nil,
//	in which case the cache degrades to local-only.
//
// Thread Safety: This type is safe for concurrent use.
type TieredCache struct {
	local  *ResultCache
	shared *SharedStore
	ttl    time.Duration
}

// NewTieredCache creates a tiered cache.
//
// Inputs:
//
//	local - The local LRU tier. Must not be nil.
//	shared - The shared BadgerDB tier. May be nil.
//	ttl - Entry lifetime for the shared tier. Non-positive uses DefaultTTL.
func NewTieredCache(local *ResultCache, shared *SharedStore, ttl time.Duration) *TieredCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TieredCache{
		local:  local,
		shared: shared,
		ttl:    ttl,
	}
}

// Get looks up a result, promoting shared hits into the local tier.
func (t *TieredCache) Get(ctx context.Context, key string) (*datatypes.IntentAnalysisResult, bool) {
	if result, ok := t.local.Get(ctx, key); ok {
		return result, true
	}

	if t.shared == nil {
		return nil, false
	}

	result, ok := t.shared.Get(ctx, key)
	if !ok {
		return nil, false
	}

	t.local.Set(ctx, key, result)
	return result, true
}

// Set writes a result to both tiers.
func (t *TieredCache) Set(ctx context.Context, key string, result *datatypes.IntentAnalysisResult) {
	t.local.Set(ctx, key, result)
	if t.shared != nil {
		t.shared.Set(ctx, key, result, t.ttl)
	}
}

// Stats reports local-tier performance counters.
func (t *TieredCache) Stats() Stats {
	return t.local.Stats()
}

// Sweep removes expired local entries; see ResultCache.Sweep.
func (t *TieredCache) Sweep() int {
	return t.local.Sweep()
}

// Close releases the shared tier, if any.
func (t *TieredCache) Close() error {
	if t.shared == nil {
		return nil
	}
	return t.shared.Close()
}
