// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package strategies implements the fallback ladder that turns free-form
// requirement text into a structured task breakdown.
//
// Five strategies run in fixed order, from most capable to most
// reliable: a structured-JSON LLM prompt, step-by-step guided
// generation, a loose single prompt, rule-based keyword scoring, and a
// minimal keyword fallback. The first structurally valid result wins.
// The final two strategies never touch the network, so the ladder
// degrades instead of failing: no providers, no API keys, and no
// connectivity still produce a usable low-confidence result.
package strategies

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
)

var tracer = otel.Tracer("aleutian.intent.strategies")

// Strategy names as they appear in result metadata.
const (
	StrategyStructured = "structured_output"
	StrategyGuided     = "guided_generation"
	StrategySimple     = "simple_parse"
	StrategyRules      = "rule_based_nlp"
	StrategyKeyword    = "basic_keywords"
)

// Strategy is one way to analyze a requirement.
type Strategy interface {
	// Name identifies the strategy in logs and result metadata.
	Name() string

	// Analyze attempts one analysis. A (nil, nil) return means the
	// strategy declined without error (no provider reachable, nothing to
	// work with) and the chain should move on quietly.
	Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error)
}

// Generator is the slice of the provider registry the LLM-backed
// strategies need. *providers.Registry satisfies it.
type Generator interface {
	// Get returns the best available provider, or nil when none is.
	Get(ctx context.Context, preferred string) providers.Provider

	// Generate runs the failover ladder and returns the completion text
	// and the name of the provider that produced it.
	Generate(ctx context.Context, preferred, prompt string, params providers.GenerationParams) (string, string, error)

	// Race hedges one generation across the top n candidates.
	Race(ctx context.Context, prompt string, params providers.GenerationParams, n int) (string, string, error)
}

// Chain runs strategies in order until one produces a valid result.
//
// # Description
//
// Per-strategy failures are logged and swallowed; they select the next
// rung instead of propagating. Only context expiry stops the chain
// early, so a caller deadline is honored even while rungs remain.
//
// # Outputs of Analyze
//
//   - (*IntentAnalysisResult, nil): First accepted result, stamped with
//     the winning strategy's name in metadata.
//   - (nil, nil): Every strategy failed or declined; the caller decides
//     the floor behavior.
//   - (nil, ctx.Err()): The context expired before a result was found.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from the given strategies, in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain wires the production ladder.
//
// # Inputs
//
//   - gen: Provider registry for the three LLM-backed rungs.
//   - lib: Prompt library shared by the LLM-backed rungs.
//   - rulesPath: Optional override for the rule table; "" uses the
//     embedded rules.
func DefaultChain(gen Generator, lib *prompts.Library, rulesPath string) (*Chain, error) {
	rules, err := NewRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return NewChain(
		NewStructured(gen, lib),
		NewGuided(gen, lib),
		NewSimple(gen, lib),
		rules,
		NewKeyword(),
	), nil
}

// Strategies returns the rungs in execution order.
func (c *Chain) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// Analyze runs the ladder for one request.
func (c *Chain) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	for i, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, span := tracer.Start(ctx, "Strategy.Analyze")
		span.SetAttributes(
			attribute.String("strategy", s.Name()),
			attribute.Int("strategy.rung", i+1),
		)

		start := time.Now()
		result, err := s.Analyze(attemptCtx, req)
		span.End()

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Analysis strategy failed",
				"strategy", s.Name(),
				"duration", time.Since(start),
				"error", err)
			continue
		case result == nil:
			slog.Debug("Analysis strategy declined", "strategy", s.Name())
			continue
		}

		if err := checkResult(result); err != nil {
			slog.Warn("Analysis strategy produced an invalid result, trying next",
				"strategy", s.Name(), "error", err)
			continue
		}

		// The chain is authoritative about attribution: whatever the
		// model put in metadata, the strategy that ran is the one named.
		result.SetMeta(datatypes.MetaStrategy, s.Name())
		slog.Info("Analysis strategy succeeded",
			"strategy", s.Name(),
			"intent", result.IntentType,
			"confidence", result.Confidence,
			"tasks", len(result.Tasks),
			"duration", time.Since(start))
		return result, nil
	}

	return nil, nil
}

// checkResult enforces the structural contract a result must meet before
// the chain accepts it.
func checkResult(r *datatypes.IntentAnalysisResult) error {
	if !r.IntentType.Valid() {
		return fmt.Errorf("intent type %q is not canonical", r.IntentType)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v out of [0,1]", r.Confidence)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if len(r.Tasks) == 0 {
		return fmt.Errorf("no tasks")
	}
	seen := make(map[string]struct{}, len(r.Tasks))
	for i := range r.Tasks {
		if err := r.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		if _, dup := seen[r.Tasks[i].ID]; dup {
			return fmt.Errorf("task %d: duplicate ID %q", i, r.Tasks[i].ID)
		}
		seen[r.Tasks[i].ID] = struct{}{}
	}
	return nil
}

// DefaultTask builds the generic task used whenever a strategy cannot
// extract anything more specific from the text.
func DefaultTask(text string) datatypes.Task {
	return datatypes.Task{
		ID:             uuid.New().String(),
		Title:          "Implement requested functionality",
		Description:    truncateRunes(text, 200),
		Type:           datatypes.TaskTypeBackend,
		Priority:       datatypes.PriorityMedium,
		Complexity:     datatypes.ComplexityModerate,
		EstimatedHours: 8.0,
		Tags:           []string{"general"},
	}
}

// MinimalResult is the floor below the ladder: the caller uses it when
// every strategy failed outright. It is still a structurally valid
// result, just one that admits it knows nothing.
func MinimalResult(text string) *datatypes.IntentAnalysisResult {
	return &datatypes.IntentAnalysisResult{
		IntentType: datatypes.IntentUnknown,
		Confidence: 0.1,
		Summary:    "Unable to fully analyze request",
		Tasks:      []datatypes.Task{DefaultTask(text)},
		Metadata:   map[string]any{datatypes.MetaError: "all_strategies_failed"},
	}
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// titleWords upper-cases the first letter of each space-separated word.
// ASCII only; the vocabulary it is applied to is ASCII by construction.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// humanizeCategory turns "feature_request" into "Feature Request" for
// use in generated summaries.
func humanizeCategory(c datatypes.IntentCategory) string {
	return titleWords(strings.ReplaceAll(string(c), "_", " "))
}
