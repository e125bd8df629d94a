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
	"testing"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

func taskIDs(tasks []datatypes.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestSortTasks_DependenciesFirst tests that a dependent listed first
// moves behind its dependencies.
func TestSortTasks_DependenciesFirst(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("deploy", "Ship it", "build", "test"),
		makeTask("build", "Build it"),
		makeTask("test", "Test it"),
	}

	got := taskIDs(SortTasks(tasks))
	if !sameIDs(got, []string{"build", "test", "deploy"}) {
		t.Errorf("order = %v, want [build test deploy]", got)
	}
}

// TestSortTasks_KeepsIndependentOrder tests that tasks without
// dependencies stay in input order.
func TestSortTasks_KeepsIndependentOrder(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("a", "First"),
		makeTask("b", "Second"),
		makeTask("c", "Third"),
	}

	got := taskIDs(SortTasks(tasks))
	if !sameIDs(got, []string{"a", "b", "c"}) {
		t.Errorf("order = %v, want input order preserved", got)
	}
}

// TestSortTasks_Diamond tests a shared dependency is emitted once,
// before everything that needs it.
func TestSortTasks_Diamond(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("release", "Release", "backend", "frontend"),
		makeTask("backend", "Backend", "schema"),
		makeTask("frontend", "Frontend", "schema"),
		makeTask("schema", "Schema"),
	}

	got := taskIDs(SortTasks(tasks))
	if !sameIDs(got, []string{"schema", "backend", "frontend", "release"}) {
		t.Errorf("order = %v, want [schema backend frontend release]", got)
	}
}

// TestSortTasks_IgnoresUnknownDeps tests that dependencies on missing
// IDs do not disturb the ordering or drop tasks.
func TestSortTasks_IgnoresUnknownDeps(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("a", "First", "ghost"),
		makeTask("b", "Second"),
	}

	got := taskIDs(SortTasks(tasks))
	if !sameIDs(got, []string{"a", "b"}) {
		t.Errorf("order = %v, want [a b]", got)
	}
}

// TestSortTasks_CycleTolerant tests that a dependency cycle keeps every
// task, in first-visit order.
func TestSortTasks_CycleTolerant(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("a", "First", "b"),
		makeTask("b", "Second", "a"),
	}

	got := taskIDs(SortTasks(tasks))
	if !sameIDs(got, []string{"b", "a"}) {
		t.Errorf("order = %v, want [b a]", got)
	}
}

// TestSortTasks_DuplicateIDs tests that repeated IDs all survive the
// sort.
func TestSortTasks_DuplicateIDs(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("a", "Original"),
		makeTask("a", "Impostor"),
		makeTask("b", "Dependent", "a"),
	}

	got := SortTasks(tasks)
	if len(got) != 3 {
		t.Fatalf("len = %d, want all 3 tasks kept", len(got))
	}
}

// TestSortTasks_DoesNotMutateInput tests that the input slice keeps its
// original order.
func TestSortTasks_DoesNotMutateInput(t *testing.T) {
	tasks := []datatypes.Task{
		makeTask("deploy", "Ship it", "build"),
		makeTask("build", "Build it"),
	}

	SortTasks(tasks)
	if tasks[0].ID != "deploy" || tasks[1].ID != "build" {
		t.Errorf("input order changed to %v", taskIDs(tasks))
	}
}

// TestSortTasks_Empty tests the trivial sizes.
func TestSortTasks_Empty(t *testing.T) {
	if got := SortTasks(nil); len(got) != 0 {
		t.Errorf("SortTasks(nil) = %v", got)
	}
	single := []datatypes.Task{makeTask("a", "Only")}
	if got := taskIDs(SortTasks(single)); !sameIDs(got, []string{"a"}) {
		t.Errorf("single-task order = %v", got)
	}
}
