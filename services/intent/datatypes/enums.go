// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the canonical data structures for the intent
// analysis service.
//
// This file contains the closed enumerations used across the service and
// the coercion helpers that map free-form model output onto them. LLM
// responses routinely invent vocabulary ("p1", "very hard", "front-end");
// coercion happens once, at the ingestion boundary, so the rest of the
// service only ever sees canonical values.
package datatypes

import "strings"

// =============================================================================
// Intent Categories
// =============================================================================

// IntentCategory classifies what kind of change a requirement asks for.
type IntentCategory string

const (
	IntentFeatureRequest IntentCategory = "feature_request"
	IntentBugFix         IntentCategory = "bug_fix"
	IntentRefactoring    IntentCategory = "refactoring"
	IntentDocumentation  IntentCategory = "documentation"
	IntentTesting        IntentCategory = "testing"
	IntentDeployment     IntentCategory = "deployment"
	IntentConfiguration  IntentCategory = "configuration"
	IntentResearch       IntentCategory = "research"
	IntentUnknown        IntentCategory = "unknown"
)

// AllIntentCategories returns every valid category in a stable order.
// Used to embed the exact vocabulary into LLM prompts.
func AllIntentCategories() []IntentCategory {
	return []IntentCategory{
		IntentFeatureRequest,
		IntentBugFix,
		IntentRefactoring,
		IntentDocumentation,
		IntentTesting,
		IntentDeployment,
		IntentConfiguration,
		IntentResearch,
		IntentUnknown,
	}
}

// Valid reports whether c is one of the canonical categories.
func (c IntentCategory) Valid() bool {
	switch c {
	case IntentFeatureRequest, IntentBugFix, IntentRefactoring,
		IntentDocumentation, IntentTesting, IntentDeployment,
		IntentConfiguration, IntentResearch, IntentUnknown:
		return true
	}
	return false
}

// intentKeywords maps recognizable substrings to a category, checked in
// order; first match wins.
var intentKeywords = []struct {
	fragment string
	category IntentCategory
}{
	{"feature", IntentFeatureRequest},
	{"enhancement", IntentFeatureRequest},
	{"bug", IntentBugFix},
	{"fix", IntentBugFix},
	{"refactor", IntentRefactoring},
	{"cleanup", IntentRefactoring},
	{"doc", IntentDocumentation},
	{"test", IntentTesting},
	{"deploy", IntentDeployment},
	{"release", IntentDeployment},
	{"config", IntentConfiguration},
	{"setting", IntentConfiguration},
	{"research", IntentResearch},
	{"investigat", IntentResearch},
	{"explor", IntentResearch},
}

// CoerceIntentCategory maps raw model output onto a canonical category.
//
// # Description
//
// Tries an exact (case-insensitive, trimmed) match first, then scans a
// keyword table for recognizable fragments, and finally falls back to
// IntentUnknown. Never fails: whatever the model produced, the caller
// gets a valid category back.
//
// # Inputs
//
//   - raw: The category string as produced by a model or rule table.
//
// # Outputs
//
//   - IntentCategory: A canonical category, IntentUnknown if unrecognizable.
func CoerceIntentCategory(raw string) IntentCategory {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	if c := IntentCategory(normalized); c.Valid() {
		return c
	}

	for _, kw := range intentKeywords {
		if strings.Contains(normalized, kw.fragment) {
			return kw.category
		}
	}

	return IntentUnknown
}

// =============================================================================
// Task Types
// =============================================================================

// TaskType classifies the engineering domain a task belongs to.
type TaskType string

const (
	TaskTypeFrontend       TaskType = "frontend"
	TaskTypeBackend        TaskType = "backend"
	TaskTypeDatabase       TaskType = "database"
	TaskTypeAPI            TaskType = "api"
	TaskTypeInfrastructure TaskType = "infrastructure"
	TaskTypeTesting        TaskType = "testing"
	TaskTypeDocumentation  TaskType = "documentation"
	TaskTypeDesign         TaskType = "design"
	TaskTypeDevOps         TaskType = "devops"
	TaskTypeSecurity       TaskType = "security"
)

// AllTaskTypes returns every valid task type in a stable order.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskTypeFrontend,
		TaskTypeBackend,
		TaskTypeDatabase,
		TaskTypeAPI,
		TaskTypeInfrastructure,
		TaskTypeTesting,
		TaskTypeDocumentation,
		TaskTypeDesign,
		TaskTypeDevOps,
		TaskTypeSecurity,
	}
}

// Valid reports whether t is one of the canonical task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeFrontend, TaskTypeBackend, TaskTypeDatabase, TaskTypeAPI,
		TaskTypeInfrastructure, TaskTypeTesting, TaskTypeDocumentation,
		TaskTypeDesign, TaskTypeDevOps, TaskTypeSecurity:
		return true
	}
	return false
}

// taskTypeKeywords is checked in order; more specific fragments first.
var taskTypeKeywords = []struct {
	fragment string
	taskType TaskType
}{
	{"front", TaskTypeFrontend},
	{"ui", TaskTypeFrontend},
	{"ux", TaskTypeFrontend},
	{"client", TaskTypeFrontend},
	{"devops", TaskTypeDevOps},
	{"deploy", TaskTypeDevOps},
	{"ci/cd", TaskTypeDevOps},
	{"pipeline", TaskTypeDevOps},
	{"infra", TaskTypeInfrastructure},
	{"cloud", TaskTypeInfrastructure},
	{"kubernetes", TaskTypeInfrastructure},
	{"secur", TaskTypeSecurity},
	{"auth", TaskTypeSecurity},
	{"data", TaskTypeDatabase},
	{"sql", TaskTypeDatabase},
	{"schema", TaskTypeDatabase},
	{"migration", TaskTypeDatabase},
	{"api", TaskTypeAPI},
	{"endpoint", TaskTypeAPI},
	{"rest", TaskTypeAPI},
	{"grpc", TaskTypeAPI},
	{"test", TaskTypeTesting},
	{"qa", TaskTypeTesting},
	{"doc", TaskTypeDocumentation},
	{"design", TaskTypeDesign},
	{"mockup", TaskTypeDesign},
	{"back", TaskTypeBackend},
	{"server", TaskTypeBackend},
	{"service", TaskTypeBackend},
}

// CoerceTaskType maps raw model output onto a canonical task type,
// defaulting to backend when nothing matches.
func CoerceTaskType(raw string) TaskType {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if t := TaskType(normalized); t.Valid() {
		return t
	}

	for _, kw := range taskTypeKeywords {
		if strings.Contains(normalized, kw.fragment) {
			return kw.taskType
		}
	}

	return TaskTypeBackend
}

// =============================================================================
// Task Priorities
// =============================================================================

// TaskPriority classifies how urgent a task is.
type TaskPriority string

const (
	PriorityCritical TaskPriority = "critical"
	PriorityHigh     TaskPriority = "high"
	PriorityMedium   TaskPriority = "medium"
	PriorityLow      TaskPriority = "low"
)

// AllTaskPriorities returns every valid priority in a stable order.
func AllTaskPriorities() []TaskPriority {
	return []TaskPriority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// Valid reports whether p is one of the canonical priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

var priorityKeywords = []struct {
	fragment string
	priority TaskPriority
}{
	{"crit", PriorityCritical},
	{"urgent", PriorityCritical},
	{"blocker", PriorityCritical},
	{"p0", PriorityCritical},
	{"high", PriorityHigh},
	{"important", PriorityHigh},
	{"p1", PriorityHigh},
	{"low", PriorityLow},
	{"minor", PriorityLow},
	{"nice", PriorityLow},
	{"p3", PriorityLow},
	{"med", PriorityMedium},
	{"normal", PriorityMedium},
	{"p2", PriorityMedium},
}

// CoerceTaskPriority maps raw model output onto a canonical priority,
// defaulting to medium when nothing matches.
func CoerceTaskPriority(raw string) TaskPriority {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if p := TaskPriority(normalized); p.Valid() {
		return p
	}

	for _, kw := range priorityKeywords {
		if strings.Contains(normalized, kw.fragment) {
			return kw.priority
		}
	}

	return PriorityMedium
}

// =============================================================================
// Task Complexity
// =============================================================================

// TaskComplexity classifies how large a task is expected to be.
type TaskComplexity string

const (
	ComplexitySimple      TaskComplexity = "simple"
	ComplexityModerate    TaskComplexity = "moderate"
	ComplexityComplex     TaskComplexity = "complex"
	ComplexityVeryComplex TaskComplexity = "very_complex"
)

// AllTaskComplexities returns every valid complexity in a stable order.
func AllTaskComplexities() []TaskComplexity {
	return []TaskComplexity{ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityVeryComplex}
}

// Valid reports whether c is one of the canonical complexities.
func (c TaskComplexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityVeryComplex:
		return true
	}
	return false
}

// complexityKeywords is checked in order; "very" must precede "complex"
// so "very complex" does not stop at the weaker match.
var complexityKeywords = []struct {
	fragment   string
	complexity TaskComplexity
}{
	{"very", ComplexityVeryComplex},
	{"epic", ComplexityVeryComplex},
	{"huge", ComplexityVeryComplex},
	{"simple", ComplexitySimple},
	{"trivial", ComplexitySimple},
	{"easy", ComplexitySimple},
	{"small", ComplexitySimple},
	{"complex", ComplexityComplex},
	{"hard", ComplexityComplex},
	{"large", ComplexityComplex},
	{"moderate", ComplexityModerate},
	{"medium", ComplexityModerate},
}

// CoerceTaskComplexity maps raw model output onto a canonical complexity,
// defaulting to moderate when nothing matches.
func CoerceTaskComplexity(raw string) TaskComplexity {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	if c := TaskComplexity(normalized); c.Valid() {
		return c
	}

	for _, kw := range complexityKeywords {
		if strings.Contains(normalized, kw.fragment) {
			return kw.complexity
		}
	}

	return ComplexityModerate
}

// =============================================================================
// Thought Phases
// =============================================================================

// ThoughtPhase identifies which stage of analysis a progress event
// belongs to.
type ThoughtPhase string

const (
	PhaseUnderstanding ThoughtPhase = "understanding"
	PhaseAnalyzing     ThoughtPhase = "analyzing"
	PhaseClassifying   ThoughtPhase = "classifying"
	PhaseDecomposing   ThoughtPhase = "decomposing"
	PhasePlanning      ThoughtPhase = "planning"
	PhaseValidating    ThoughtPhase = "validating"
	PhaseComplete      ThoughtPhase = "complete"
	PhaseError         ThoughtPhase = "error"
)

// Valid reports whether p is one of the canonical phases.
func (p ThoughtPhase) Valid() bool {
	switch p {
	case PhaseUnderstanding, PhaseAnalyzing, PhaseClassifying,
		PhaseDecomposing, PhasePlanning, PhaseValidating,
		PhaseComplete, PhaseError:
		return true
	}
	return false
}
