// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache provides the two-tier result cache for intent analysis:
// a local in-process LRU tier and an optional shared BadgerDB tier.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

const (
	// DefaultTTL is how long cached analysis results stay valid.
	DefaultTTL = 24 * time.Hour

	// DefaultMaxEntries bounds the local tier before LRU eviction.
	DefaultMaxEntries = 1000
)

// ResultCache caches analysis results with LRU eviction.
//
// Description:
//
//	Provides a thread-safe LRU cache for intent analysis results with
//	TTL expiration. Keys are precomputed via Key() so both tiers share
//	the same addressing. Expired entries are removed lazily on Get and
//	proactively via Sweep.
//
// Thread Safety: This type is safe for concurrent use.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	lru     *list.List
	ttl     time.Duration
	maxSize int

	// Metrics
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// cacheEntry stores a cached analysis result.
type cacheEntry struct {
	key       string
	result    *datatypes.IntentAnalysisResult
	expiresAt time.Time
}

// NewResultCache creates a cache with TTL and max size.
//
// Description:
//
//	Creates a new LRU cache for analysis results. Non-positive ttl or
//	maxSize fall back to DefaultTTL / DefaultMaxEntries.
//
// Inputs:
//
//	ttl - How long cached results are valid.
//	maxSize - Maximum number of entries before LRU eviction.
//
// Outputs:
//
//	*ResultCache - Ready-to-use cache.
//
// Example:
//
//	c := NewResultCache(24*time.Hour, 1000)
//	c.Set(ctx, key, result)
//	if cached, ok := c.Get(ctx, key); ok {
//	    // Use cached result
//	}
//
// Thread Safety: The returned cache is safe for concurrent use.
func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxEntries
	}
	return &ResultCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result if valid (not expired).
//
// Description:
//
//	Looks up a cached analysis result by key. Returns nil if the entry
//	doesn't exist or has expired. A hit returns a deep copy marked
//	cached in its metadata, so callers can mutate freely.
//
// Inputs:
//
//	ctx - Context for metric recording.
//	key - Precomputed cache key (see Key).
//
// Outputs:
//
//	*datatypes.IntentAnalysisResult - Deep copy of the cached result, or nil.
//	bool - True if a valid cached result was found.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Get(ctx context.Context, key string) (*datatypes.IntentAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		c.misses.Add(1)
		recordCacheMiss(ctx, tierLocal)
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		// Expired - remove lazily
		c.removeElement(elem)
		c.misses.Add(1)
		recordCacheMiss(ctx, tierLocal)
		return nil, false
	}

	// Move to front (most recently used)
	c.lru.MoveToFront(elem)

	c.hits.Add(1)
	recordCacheHit(ctx, tierLocal)

	// Deep copy to prevent mutation of cached entry
	out := entry.result.Clone()
	out.SetMeta(datatypes.MetaCached, true)
	return out, true
}

// Set stores an analysis result, evicting LRU if at capacity.
//
// Description:
//
//	Stores or updates an analysis result in the cache. If the cache is
//	at capacity, the least recently used entry is evicted first. The
//	stored copy never carries the cached metadata marker; it is applied
//	on the way out.
//
// Inputs:
//
//	ctx - Context for metric recording.
//	key - Precomputed cache key (see Key).
//	result - The analysis result to cache. Must not be nil.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Set(ctx context.Context, key string, result *datatypes.IntentAnalysisResult) {
	if result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Deep copy the result to prevent mutation of cached entry
	resultCopy := result.Clone()
	if resultCopy.Metadata != nil {
		delete(resultCopy.Metadata, datatypes.MetaCached)
	}

	// Update existing entry
	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.result = resultCopy
		entry.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(elem)
		return
	}

	// Evict if at capacity
	for c.lru.Len() >= c.maxSize {
		c.evictOldest(ctx)
	}

	// Add new entry
	entry := &cacheEntry{
		key:       key,
		result:    resultCopy,
		expiresAt: time.Now().Add(c.ttl),
	}
	elem := c.lru.PushFront(entry)
	c.entries[key] = elem
}

// Delete removes a specific entry from the cache.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		c.removeElement(elem)
	}
}

// Clear removes all entries from the cache.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
}

// Sweep removes all expired entries and returns the count removed.
//
// Description:
//
//	Walks the cache and drops every entry past its expiry. Intended to
//	be called periodically by a maintenance goroutine so idle expired
//	entries don't pin memory until their next lookup.
//
// Outputs:
//
//	int - Number of entries removed.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)
		if now.After(entry.expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}

	return removed
}

// Size returns the current number of entries in the cache.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// HitRate returns the cache hit rate (0.0-1.0).
//
// Description:
//
//	Calculates the ratio of cache hits to total lookups.
//	Returns 0 if no lookups have been performed.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Hits returns the total number of cache hits.
func (c *ResultCache) Hits() int64 {
	return c.hits.Load()
}

// Misses returns the total number of cache misses.
func (c *ResultCache) Misses() int64 {
	return c.misses.Load()
}

// Stats returns a point-in-time view of cache performance.
//
// Thread Safety: This method is safe for concurrent use.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Size:      c.Size(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		HitRate:   c.HitRate(),
	}
}

// Stats describes cache performance counters.
type Stats struct {
	Size      int     `json:"size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *ResultCache) evictOldest(ctx context.Context) {
	elem := c.lru.Back()
	if elem != nil {
		c.removeElement(elem)
		c.evictions.Add(1)
		recordCacheEviction(ctx, tierLocal)
	}
}

// removeElement removes an element from both map and list.
// Must be called with lock held.
func (c *ResultCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
}
