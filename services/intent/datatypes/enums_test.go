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

import "testing"

// =============================================================================
// Intent Category Coercion Tests
// =============================================================================

func TestCoerceIntentCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want IntentCategory
	}{
		{"exact match", "bug_fix", IntentBugFix},
		{"exact with spaces", " feature_request ", IntentFeatureRequest},
		{"uppercase", "REFACTORING", IntentRefactoring},
		{"space separated", "bug fix", IntentBugFix},
		{"hyphen separated", "feature-request", IntentFeatureRequest},
		{"keyword fragment fix", "fixing stuff", IntentBugFix},
		{"keyword fragment feature", "new feature work", IntentFeatureRequest},
		{"keyword fragment docs", "docs update", IntentDocumentation},
		{"keyword fragment investigate", "investigate options", IntentResearch},
		{"keyword fragment deploy", "deployment pipeline", IntentDeployment},
		{"unrecognizable", "quux", IntentUnknown},
		{"empty", "", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceIntentCategory(tt.raw)
			if got != tt.want {
				t.Errorf("CoerceIntentCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIntentCategory_Valid(t *testing.T) {
	for _, c := range AllIntentCategories() {
		if !c.Valid() {
			t.Errorf("category %q should be valid", c)
		}
	}
	if IntentCategory("nonsense").Valid() {
		t.Error("nonsense category should not be valid")
	}
}

// =============================================================================
// Task Type Coercion Tests
// =============================================================================

func TestCoerceTaskType(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want TaskType
	}{
		{"exact", "frontend", TaskTypeFrontend},
		{"uppercase", "BACKEND", TaskTypeBackend},
		{"front fragment", "front-end work", TaskTypeFrontend},
		{"ui fragment", "ui polish", TaskTypeFrontend},
		{"api fragment", "REST api endpoint", TaskTypeAPI},
		{"sql fragment", "sql tuning", TaskTypeDatabase},
		{"migration fragment", "data migration", TaskTypeDatabase},
		{"devops fragment", "deploy scripts", TaskTypeDevOps},
		{"security fragment", "auth hardening", TaskTypeSecurity},
		{"infrastructure fragment", "cloud setup", TaskTypeInfrastructure},
		{"unknown defaults to backend", "mystery work", TaskTypeBackend},
		{"empty defaults to backend", "", TaskTypeBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceTaskType(tt.raw)
			if got != tt.want {
				t.Errorf("CoerceTaskType(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Priority / Complexity Coercion Tests
// =============================================================================

func TestCoerceTaskPriority(t *testing.T) {
	tests := []struct {
		raw  string
		want TaskPriority
	}{
		{"critical", PriorityCritical},
		{"urgent", PriorityCritical},
		{"P0", PriorityCritical},
		{"high", PriorityHigh},
		{"important", PriorityHigh},
		{"low", PriorityLow},
		{"nice to have", PriorityLow},
		{"medium", PriorityMedium},
		{"whatever", PriorityMedium},
		{"", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := CoerceTaskPriority(tt.raw); got != tt.want {
				t.Errorf("CoerceTaskPriority(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCoerceTaskComplexity(t *testing.T) {
	tests := []struct {
		raw  string
		want TaskComplexity
	}{
		{"simple", ComplexitySimple},
		{"trivial", ComplexitySimple},
		{"very complex", ComplexityVeryComplex},
		{"very_complex", ComplexityVeryComplex},
		{"complex", ComplexityComplex},
		{"hard", ComplexityComplex},
		{"moderate", ComplexityModerate},
		{"no idea", ComplexityModerate},
		{"", ComplexityModerate},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := CoerceTaskComplexity(tt.raw); got != tt.want {
				t.Errorf("CoerceTaskComplexity(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
