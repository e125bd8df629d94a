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

import (
	"fmt"
	"strings"
)

// Task is one actionable unit of work within a task breakdown.
//
// # Description
//
// Tasks are produced by analysis strategies from free-form requirement
// text and normalized to this single canonical schema. Effort is always
// expressed in hours. Dependencies reference other task IDs within the
// same breakdown; a task never depends on itself.
//
// # Fields
//
//   - ID: Unique within one breakdown (e.g. "task_1" or a UUID).
//   - Title: Short imperative summary. Required.
//   - Description: Longer free-form explanation. May be empty.
//   - Type: Engineering domain (frontend, backend, ...).
//   - Priority: Urgency (critical, high, medium, low).
//   - Complexity: Sizing (simple, moderate, complex, very_complex).
//   - EstimatedHours: Positive effort estimate in hours.
//   - Dependencies: IDs of tasks that must complete first.
//   - Tags: Free-form labels.
//   - AcceptanceCriteria: Ordered list of done-conditions.
type Task struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Type               TaskType       `json:"type"`
	Priority           TaskPriority   `json:"priority"`
	Complexity         TaskComplexity `json:"complexity"`
	EstimatedHours     float64        `json:"estimated_hours"`
	Dependencies       []string       `json:"dependencies,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	AcceptanceCriteria []string       `json:"acceptance_criteria,omitempty"`
}

// Validate checks the structural invariants of a single task.
//
// # Description
//
// Verifies required fields, enum membership, a positive effort estimate,
// and the no-self-dependency invariant. Cross-task checks (dangling or
// circular dependencies) are the responsibility of the breakdown-level
// validator, not this method.
//
// # Outputs
//
//   - error: Non-nil describing the first violation found.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task id must not be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task %s: title must not be empty", t.ID)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("task %s: invalid type %q", t.ID, t.Type)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task %s: invalid priority %q", t.ID, t.Priority)
	}
	if !t.Complexity.Valid() {
		return fmt.Errorf("task %s: invalid complexity %q", t.ID, t.Complexity)
	}
	if t.EstimatedHours <= 0 {
		return fmt.Errorf("task %s: estimated_hours must be positive, got %v", t.ID, t.EstimatedHours)
	}
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			return fmt.Errorf("task %s: depends on itself", t.ID)
		}
	}
	return nil
}

// Normalize coerces the enum fields onto canonical values in place.
// Raw strategy output goes through this exactly once, at ingestion.
func (t *Task) Normalize() {
	t.Type = CoerceTaskType(string(t.Type))
	t.Priority = CoerceTaskPriority(string(t.Priority))
	t.Complexity = CoerceTaskComplexity(string(t.Complexity))
	if t.EstimatedHours <= 0 {
		t.EstimatedHours = defaultTaskHours
	}
}

// defaultTaskHours is assigned when a strategy produced no usable
// effort estimate.
const defaultTaskHours = 4.0

// Clone returns a deep copy of the task. Cached results hand out clones
// so callers can never mutate a cache entry.
func (t Task) Clone() Task {
	clone := t
	if t.Dependencies != nil {
		clone.Dependencies = make([]string, len(t.Dependencies))
		copy(clone.Dependencies, t.Dependencies)
	}
	if t.Tags != nil {
		clone.Tags = make([]string, len(t.Tags))
		copy(clone.Tags, t.Tags)
	}
	if t.AcceptanceCriteria != nil {
		clone.AcceptanceCriteria = make([]string, len(t.AcceptanceCriteria))
		copy(clone.AcceptanceCriteria, t.AcceptanceCriteria)
	}
	return clone
}

// CloneTasks deep-copies a whole task slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
