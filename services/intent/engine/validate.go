// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// highEstimateHours is the threshold above which a single task draws a
// break-it-down suggestion.
const highEstimateHours = 40.0

// ValidateTasks checks a task breakdown for structural defects and
// planning smells.
//
// # Description
//
// Issues make the breakdown unsafe to execute: duplicate IDs, tasks
// depending on themselves, dependencies on IDs that do not exist, and
// dependency cycles (the issue spells out the cycle path). Suggestions
// are advisory: estimates over 40 hours, tasks without acceptance
// criteria, and a task list scattered thinly across many types.
//
// The input is never modified, and validation is independent of any
// analysis: callers can validate hand-written breakdowns.
func ValidateTasks(tasks []datatypes.Task) datatypes.ValidationResult {
	issues := make([]string, 0)
	suggestions := make([]string, 0)

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			issues = append(issues, fmt.Sprintf("Duplicate task ID: %s", t.ID))
		}
		seen[t.ID] = true
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			switch {
			case dep == t.ID:
				issues = append(issues, fmt.Sprintf("Task %s depends on itself", t.ID))
			case !seen[dep]:
				issues = append(issues, fmt.Sprintf("Task %s depends on non-existent task %s", t.ID, dep))
			}
		}
	}

	if cycle := findCycle(tasks); len(cycle) > 0 {
		issues = append(issues, fmt.Sprintf("Circular dependency detected: %s",
			strings.Join(cycle, " -> ")))
	}

	for _, t := range tasks {
		if t.EstimatedHours > highEstimateHours {
			suggestions = append(suggestions, fmt.Sprintf(
				"Task '%s' has high estimate (%gh). Consider breaking it down further.",
				t.Title, t.EstimatedHours))
		}
		if len(t.AcceptanceCriteria) == 0 {
			suggestions = append(suggestions, fmt.Sprintf(
				"Task '%s' lacks acceptance criteria", t.Title))
		}
	}

	if hasScatteredTypes(tasks) {
		suggestions = append(suggestions,
			"Consider grouping related tasks by type for better organization")
	}

	return datatypes.ValidationResult{
		IsValid:     len(issues) == 0,
		Issues:      issues,
		Suggestions: suggestions,
	}
}

// findCycle returns the first dependency cycle found as a path ending
// where it starts ("a -> b -> a"), or nil when the graph is acyclic.
// Self-dependencies are reported separately and skipped here.
func findCycle(tasks []datatypes.Task) []string {
	byID := make(map[string]*datatypes.Task, len(tasks))
	for i := range tasks {
		if _, ok := byID[tasks[i].ID]; !ok {
			byID[tasks[i].ID] = &tasks[i]
		}
	}

	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(tasks))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		stack = append(stack, id)

		for _, dep := range byID[id].Dependencies {
			if dep == id {
				continue
			}
			if _, exists := byID[dep]; !exists {
				continue
			}
			switch state[dep] {
			case unvisited:
				if visit(dep) {
					return true
				}
			case inStack:
				start := 0
				for i, s := range stack {
					if s == dep {
						start = i
						break
					}
				}
				cycle = append(append(cycle, stack[start:]...), dep)
				return true
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for i := range tasks {
		if state[tasks[i].ID] == unvisited {
			if visit(tasks[i].ID) {
				return cycle
			}
		}
	}
	return nil
}

// hasScatteredTypes reports whether most task types appear exactly
// once, which usually means the breakdown would read better grouped.
func hasScatteredTypes(tasks []datatypes.Task) bool {
	if len(tasks) < 2 {
		return false
	}
	counts := make(map[datatypes.TaskType]int)
	for _, t := range tasks {
		counts[t.Type]++
	}
	var singles int
	for _, n := range counts {
		if n == 1 {
			singles++
		}
	}
	return float64(singles) > float64(len(counts))*0.5
}
