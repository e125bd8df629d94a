// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

func sampleResult(summary string) *datatypes.IntentAnalysisResult {
	return &datatypes.IntentAnalysisResult{
		IntentType: datatypes.IntentBugFix,
		Confidence: 0.8,
		Summary:    summary,
		Tasks: []datatypes.Task{{
			ID:             "task_1",
			Title:          "Fix crash",
			Type:           datatypes.TaskTypeBackend,
			Priority:       datatypes.PriorityHigh,
			Complexity:     datatypes.ComplexityModerate,
			EstimatedHours: 4,
		}},
		Metadata: map[string]any{datatypes.MetaStrategy: "structured_llm"},
	}
}

func TestResultCache_BasicOperations(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 100)

	t.Run("set and get", func(t *testing.T) {
		key := Key("fix the login crash", nil)
		c.Set(ctx, key, sampleResult("Fix login crash"))

		cached, ok := c.Get(ctx, key)
		if !ok {
			t.Fatal("expected cache hit")
		}
		if cached.Metadata[datatypes.MetaCached] != true {
			t.Error("expected cached marker on returned result")
		}
		if cached.Summary != "Fix login crash" {
			t.Errorf("expected summary preserved, got %q", cached.Summary)
		}
	})

	t.Run("miss for different text", func(t *testing.T) {
		if _, ok := c.Get(ctx, Key("different request", nil)); ok {
			t.Error("expected cache miss")
		}
	})

	t.Run("miss for different context", func(t *testing.T) {
		key := Key("fix the login crash", map[string]any{"project": "billing"})
		if _, ok := c.Get(ctx, key); ok {
			t.Error("expected cache miss for different context")
		}
	})
}

func TestResultCache_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(50*time.Millisecond, 100)

	key := Key("some request text here", nil)
	c.Set(ctx, key, sampleResult("s"))

	// Should hit immediately
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("expected cache hit before expiration")
	}

	// Wait for expiration
	time.Sleep(60 * time.Millisecond)

	// Should miss after expiration
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected cache miss after expiration")
	}
}

func TestResultCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 3) // Max 3 entries

	keys := make([]string, 4)
	for i := 0; i < 4; i++ {
		keys[i] = Key(fmt.Sprintf("request %d", i), nil)
	}

	c.Set(ctx, keys[0], sampleResult("r0"))
	c.Set(ctx, keys[1], sampleResult("r1"))
	c.Set(ctx, keys[2], sampleResult("r2"))

	// Touch key 0 so key 1 becomes the LRU entry
	c.Get(ctx, keys[0])

	// Adding a fourth entry evicts key 1
	c.Set(ctx, keys[3], sampleResult("r3"))

	if _, ok := c.Get(ctx, keys[1]); ok {
		t.Error("expected LRU entry to be evicted")
	}
	for _, i := range []int{0, 2, 3} {
		if _, ok := c.Get(ctx, keys[i]); !ok {
			t.Errorf("expected key %d to survive eviction", i)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestResultCache_DeepCopyIsolation(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 100)

	key := Key("isolation test request", nil)
	original := sampleResult("original")
	c.Set(ctx, key, original)

	// Mutating the original after Set must not affect the cache
	original.Tasks[0].Title = "mutated"

	first, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if first.Tasks[0].Title != "Fix crash" {
		t.Error("cache should store a copy, not the caller's value")
	}

	// Mutating a returned result must not affect later reads
	first.Tasks[0].Title = "mutated again"

	second, _ := c.Get(ctx, key)
	if second.Tasks[0].Title != "Fix crash" {
		t.Error("cache should return a fresh copy per Get")
	}
}

func TestResultCache_CachedMarkerNotStored(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 100)

	key := Key("marker test request", nil)

	// Store a result that already carries the cached marker
	r := sampleResult("s")
	r.SetMeta(datatypes.MetaCached, true)
	c.Set(ctx, key, r)

	cached, _ := c.Get(ctx, key)
	if cached.Metadata[datatypes.MetaCached] != true {
		t.Error("returned result should carry the cached marker")
	}
	if cached.Metadata[datatypes.MetaStrategy] != "structured_llm" {
		t.Error("other metadata should survive the round trip")
	}
}

func TestResultCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(30*time.Millisecond, 100)

	for i := 0; i < 5; i++ {
		c.Set(ctx, Key(fmt.Sprintf("sweep %d", i), nil), sampleResult("s"))
	}

	time.Sleep(40 * time.Millisecond)

	if removed := c.Sweep(); removed != 5 {
		t.Errorf("Sweep() removed %d, want 5", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after sweep, want 0", c.Size())
	}
}

func TestResultCache_HitRate(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 100)

	key := Key("hit rate request", nil)
	c.Set(ctx, key, sampleResult("s"))

	c.Get(ctx, key)                   // hit
	c.Get(ctx, Key("missing a", nil)) // miss
	c.Get(ctx, Key("missing b", nil)) // miss

	if c.Hits() != 1 {
		t.Errorf("Hits() = %d, want 1", c.Hits())
	}
	if c.Misses() != 2 {
		t.Errorf("Misses() = %d, want 2", c.Misses())
	}

	want := 1.0 / 3.0
	if got := c.HitRate(); got < want-0.001 || got > want+0.001 {
		t.Errorf("HitRate() = %v, want ~%v", got, want)
	}
}

func TestResultCache_Defaults(t *testing.T) {
	c := NewResultCache(0, 0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
	if c.maxSize != DefaultMaxEntries {
		t.Errorf("maxSize = %d, want %d", c.maxSize, DefaultMaxEntries)
	}
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(10*time.Minute, 50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key(fmt.Sprintf("request %d", j%20), nil)
				if n%2 == 0 {
					c.Set(ctx, key, sampleResult("s"))
				} else {
					c.Get(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestKey_Deterministic(t *testing.T) {
	reqContext := map[string]any{"repo": "billing", "branch": "main"}

	a := Key("  Fix the login crash  ", reqContext)
	b := Key("Fix the login crash", map[string]any{"branch": "main", "repo": "billing"})

	if a != b {
		t.Error("keys should be stable across whitespace and context ordering")
	}

	if Key("Fix the login crash", nil) == a {
		t.Error("context must contribute to the key")
	}
	if Key("another request", reqContext) == a {
		t.Error("text must contribute to the key")
	}
}

func TestKey_NilAndEmptyContextEquivalent(t *testing.T) {
	if Key("text here", nil) != Key("text here", map[string]any{}) {
		t.Error("nil and empty context should hash identically")
	}
}
