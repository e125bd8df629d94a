// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates one intent analysis end to end: cache
// lookup, in-flight deduplication, the strategy ladder, task ordering,
// progress thoughts, and the cache write-through.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianIntent/services/intent/cache"
	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/observability"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
	"github.com/AleutianAI/AleutianIntent/services/intent/strategies"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

var tracer = otel.Tracer("aleutian.intent.engine")

// ErrProcessingTimeout reports that an analysis ran out of deadline
// before any strategy produced a result. The transport layer maps it to
// 504 Gateway Timeout.
var ErrProcessingTimeout = errors.New("intent analysis timed out")

// AnalysisCache is the slice of the cache layer the engine needs. Both
// *cache.ResultCache and *cache.TieredCache satisfy it.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*datatypes.IntentAnalysisResult, bool)
	Set(ctx context.Context, key string, result *datatypes.IntentAnalysisResult)
}

// ThoughtEmitter is the slice of the stream manager the engine needs.
// *thoughts.StreamManager satisfies it.
type ThoughtEmitter interface {
	Emit(ctx context.Context, requestID string, event datatypes.ThoughtEvent) bool
}

// Config carries the collaborators an Analyzer is built from.
//
// # Fields
//
//   - Registry: Provider registry, exposed to transport handlers for
//     health and provider endpoints. Optional.
//   - Chain: The strategy ladder. Required.
//   - Cache: Result cache. Optional; nil disables caching.
//   - Thoughts: Progress event sink. Optional; nil disables thoughts.
//   - Limiter: Analysis throughput guard shared by all requests.
//     Optional; nil disables throttling.
type Config struct {
	Registry *providers.Registry
	Chain    *strategies.Chain
	Cache    AnalysisCache
	Thoughts ThoughtEmitter
	Limiter  *resilience.RateLimiter
}

// Analyzer runs intent analyses.
//
// # Description
//
// Analyze never fails for reasons of model quality: the strategy ladder
// degrades down to deterministic rungs, and when even those produce
// nothing usable the engine returns a minimal low-confidence result.
// The only error paths are invalid input and context expiry.
//
// Identical concurrent requests are deduplicated: one analysis runs and
// every waiting caller receives its own copy of the outcome.
//
// Thread Safety: Safe for concurrent use.
type Analyzer struct {
	registry *providers.Registry
	chain    *strategies.Chain
	cache    AnalysisCache
	thoughts ThoughtEmitter
	limiter  *resilience.RateLimiter
	group    singleflight.Group
}

// NewAnalyzer builds an Analyzer from the given collaborators.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Chain == nil {
		return nil, errors.New("engine: config needs a strategy chain")
	}
	return &Analyzer{
		registry: cfg.Registry,
		chain:    cfg.Chain,
		cache:    cfg.Cache,
		thoughts: cfg.Thoughts,
		limiter:  cfg.Limiter,
	}, nil
}

// Registry returns the provider registry the analyzer was built with,
// or nil. Transport handlers use it for provider and health endpoints.
func (a *Analyzer) Registry() *providers.Registry {
	return a.registry
}

// Analyze runs one analysis for the request.
//
// # Description
//
// The flow is: validate input, check the cache, then join or start the
// single in-flight analysis for this cache key. The worker emits the
// progress thought sequence for the request that started it, walks the
// strategy ladder, orders tasks so dependencies come first, stamps
// bookkeeping metadata, and writes the result through to the cache.
//
// When every strategy fails the engine returns (and caches) a minimal
// unknown-intent result rather than an error, so repeated pathological
// inputs do not hammer the providers.
//
// # Outputs
//
//   - Result: Structurally valid analysis owned by the caller.
//   - Error: Invalid input, ErrProcessingTimeout on deadline expiry, or
//     the context error when the caller cancelled.
func (a *Analyzer) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	if req == nil {
		return nil, errors.New("engine: nil analyze request")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyze request: %w", err)
	}
	req.EnsureDefaults()

	text := req.NormalizedText()
	key := cache.Key(text, req.Context)

	ctx, span := tracer.Start(ctx, "Analyzer.Analyze")
	span.SetAttributes(
		attribute.String("request_id", req.RequestID),
		attribute.Int("text_chars", len(text)),
	)
	defer span.End()

	if hit, ok := a.cacheGet(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseComplete).
			WithDetail("Found in cache").
			WithProgress(1.0))
		return hit, nil
	}

	result, err := a.analyzeShared(ctx, key, req, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseError).
				WithDetail("Analysis timed out"))
			return nil, ErrProcessingTimeout
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("intent", string(result.IntentType)),
		attribute.String("strategy", result.Strategy()),
	)
	return result, nil
}

// analyzeShared funnels identical concurrent requests into one worker.
//
// The worker runs on a context that keeps the originating caller's
// deadline and tracing but not its cancellation, so a follower's result
// does not die with the leader's connection. Each caller still honors
// its own context while waiting.
func (a *Analyzer) analyzeShared(ctx context.Context, key string, req *datatypes.AnalyzeRequest, text string) (*datatypes.IntentAnalysisResult, error) {
	workCtx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		workCtx, cancel = context.WithDeadline(workCtx, deadline)
		defer cancel()
	}

	ch := a.group.DoChan(key, func() (any, error) {
		return a.analyzeOnce(workCtx, key, req, text)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := res.Val.(*datatypes.IntentAnalysisResult)
		if res.Shared {
			// Joined requests get their own copy and a terminal thought
			// so their streams do not end silently.
			result = result.Clone()
			a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseComplete).
				WithDetail("Merged with identical in-flight request").
				WithProgress(1.0))
		}
		return result, nil
	}
}

// analyzeOnce is the deduplicated worker body: thoughts, ladder,
// ordering, metadata, cache write-through.
func (a *Analyzer) analyzeOnce(ctx context.Context, key string, req *datatypes.AnalyzeRequest, text string) (*datatypes.IntentAnalysisResult, error) {
	// A request that queued behind an identical leader may find the
	// leader's result already cached, without spending a limiter token.
	if hit, ok := a.cacheGet(ctx, key); ok {
		a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseComplete).
			WithDetail("Found in cache").
			WithProgress(1.0))
		return hit, nil
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseUnderstanding).
		WithDetail(fmt.Sprintf("Processing %d character request", len(text))).
		WithProgress(0.1))

	domain := strategies.DetectDomain(text)
	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseAnalyzing).
		WithDetail("Detected domain: "+domain).
		WithProgress(0.3))

	result, err := a.chain.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		observability.LoggerWithRequest(ctx, nil, req.RequestID).
			Warn("All analysis strategies failed, returning minimal result")
		a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseError).
			WithDetail("All analysis strategies failed"))
		result = strategies.MinimalResult(text)
	}

	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseClassifying).
		WithDetail("Intent type: "+string(result.IntentType)).
		WithProgress(0.5).
		WithMetadata(map[string]any{"confidence": result.Confidence}))

	result.Tasks = SortTasks(result.Tasks)
	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseDecomposing).
		WithDetail(fmt.Sprintf("Creating %d tasks", len(result.Tasks))).
		WithProgress(0.7))

	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhasePlanning).
		WithDetail(fmt.Sprintf("Estimated effort: %.1f hours", result.TotalEstimatedHours())).
		WithProgress(0.9))

	result.SetMeta(datatypes.MetaDomain, domain)
	result.SetMeta(datatypes.MetaAnalyzedAt, time.Now().UTC().Format(time.RFC3339))
	result.SetMeta(datatypes.MetaDurationMS, time.Since(start).Milliseconds())

	a.cacheSet(ctx, key, result)
	a.emit(ctx, req.RequestID, thoughts.Message(datatypes.PhaseComplete).
		WithDetail("Analysis complete").
		WithProgress(1.0))

	return result, nil
}

// cacheGet looks the key up when a cache is configured.
func (a *Analyzer) cacheGet(ctx context.Context, key string) (*datatypes.IntentAnalysisResult, bool) {
	if a.cache == nil {
		return nil, false
	}
	return a.cache.Get(ctx, key)
}

// cacheSet stores the result when a cache is configured.
func (a *Analyzer) cacheSet(ctx context.Context, key string, result *datatypes.IntentAnalysisResult) {
	if a.cache == nil {
		return
	}
	a.cache.Set(ctx, key, result)
}

// emit delivers a thought when a sink is configured.
func (a *Analyzer) emit(ctx context.Context, requestID string, event datatypes.ThoughtEvent) {
	if a.thoughts == nil || requestID == "" {
		return
	}
	a.thoughts.Emit(ctx, requestID, event)
}
