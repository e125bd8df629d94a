// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// Metadata keys the engine sets on every result. The metadata bag is
// open; these are the keys downstream consumers can rely on.
const (
	MetaStrategy    = "strategy"
	MetaDomain      = "domain"
	MetaProvider    = "provider"
	MetaAnalyzedAt  = "analyzed_at"
	MetaDurationMS  = "duration_ms"
	MetaError       = "error"
	MetaCached      = "cached"
	MetaTruncated   = "truncated"
	MetaEntityCount = "entity_count"
)

// IntentAnalysisResult is the outcome of analyzing one requirement.
//
// # Description
//
// The engine always returns a structurally valid result: intent type from
// the closed enum, confidence in [0,1], a non-empty summary, and a
// non-empty task list topologically ordered so dependencies precede
// dependents. Confidence communicates reliability; a low-confidence
// result from a fallback strategy is still a usable result.
//
// Once returned, the result is owned by the caller. The engine keeps only
// an independent deep copy in the cache.
//
// # Fields
//
//   - IntentType: Canonical category for the requirement.
//   - Confidence: Classifier confidence in [0,1].
//   - Summary: One-line restatement of the requirement. Never empty.
//   - Tasks: Ordered, dependency-consistent task breakdown. Never empty.
//   - Metadata: Open bag; see the Meta* keys for guaranteed entries.
type IntentAnalysisResult struct {
	IntentType IntentCategory `json:"intent_type"`
	Confidence float64        `json:"confidence"`
	Summary    string         `json:"summary"`
	Tasks      []Task         `json:"tasks"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the result. The cache stores and serves
// clones so no two callers ever share task slices or metadata maps.
func (r *IntentAnalysisResult) Clone() *IntentAnalysisResult {
	if r == nil {
		return nil
	}
	clone := &IntentAnalysisResult{
		IntentType: r.IntentType,
		Confidence: r.Confidence,
		Summary:    r.Summary,
		Tasks:      CloneTasks(r.Tasks),
	}
	if r.Metadata != nil {
		clone.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// SetMeta sets one metadata key, allocating the bag on first use.
func (r *IntentAnalysisResult) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// Strategy returns the originating strategy name from metadata, or ""
// when unset.
func (r *IntentAnalysisResult) Strategy() string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[MetaStrategy].(string); ok {
		return s
	}
	return ""
}

// TotalEstimatedHours sums the effort estimate across all tasks.
func (r *IntentAnalysisResult) TotalEstimatedHours() float64 {
	var total float64
	for _, t := range r.Tasks {
		total += t.EstimatedHours
	}
	return total
}

// ValidationResult reports the outcome of validating a task breakdown.
//
// # Description
//
// Issues are hard problems (cycles, dangling or self dependencies,
// duplicate IDs) that make the breakdown unsafe to execute. Suggestions
// are advisory (outsized estimates, missing acceptance criteria) and do
// not affect IsValid.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}
