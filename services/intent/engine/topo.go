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

import "github.com/AleutianAI/AleutianIntent/services/intent/datatypes"

// SortTasks orders tasks so dependencies precede dependents.
//
// # Description
//
// Depth-first ordering over the dependency graph. Independent tasks
// keep their input order. The sort tolerates the graphs model output
// actually produces: dependencies on unknown IDs are ignored, duplicate
// IDs resolve to their first occurrence, and cycles terminate with the
// tasks kept in first-visit order. ValidateTasks is where those defects
// get reported; ordering never drops a task over them.
//
// # Outputs
//
// A new slice holding every input task exactly once. The input slice is
// not modified.
func SortTasks(tasks []datatypes.Task) []datatypes.Task {
	if len(tasks) <= 1 {
		out := make([]datatypes.Task, len(tasks))
		copy(out, tasks)
		return out
	}

	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if _, dup := index[t.ID]; !dup {
			index[t.ID] = i
		}
	}

	visited := make([]bool, len(tasks))
	ordered := make([]datatypes.Task, 0, len(tasks))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		// Marking before descending is what makes cycles terminate.
		visited[i] = true
		for _, dep := range tasks[i].Dependencies {
			if j, ok := index[dep]; ok {
				visit(j)
			}
		}
		ordered = append(ordered, tasks[i])
	}

	for i := range tasks {
		visit(i)
	}
	return ordered
}
