// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// validateResponse mirrors the validate-tasks wire shape.
type validateResponse struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Timestamp   int64    `json:"timestamp"`
}

func runValidate(cmd *cobra.Command, args []string) {
	tasks, err := loadTasksFile(args[0])
	if err != nil {
		log.Fatalf("Failed to load %s: %v", args[0], err)
	}
	if len(tasks) == 0 {
		log.Fatalf("No tasks found in %s", args[0])
	}

	body, status, err := postJSON(resolveServerURL()+"/api/v1/validate-tasks",
		map[string]any{"tasks": tasks})
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("Validation request failed (%d): %s", status, serverError(body))
	}

	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result validateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse the validation response: %v", err)
	}

	if result.Valid {
		fmt.Printf("%s %d tasks, no problems found\n", statusIcon(true), len(tasks))
	} else {
		fmt.Printf("%s %d tasks, %d problems\n", statusIcon(false), len(tasks), len(result.Issues))
		for _, issue := range result.Issues {
			fmt.Printf("  %s %s\n", iconBullet, issue)
		}
	}

	if len(result.Suggestions) > 0 {
		fmt.Println()
		printTitle("Suggestions")
		for _, s := range result.Suggestions {
			line := fmt.Sprintf("  %s %s", iconBullet, s)
			if richOutput() {
				line = styles.Muted.Render(line)
			}
			fmt.Println(line)
		}
	}

	if !result.Valid {
		os.Exit(1)
	}
}

// loadTasksFile reads a task list from disk. Both a bare JSON array and
// an analyze response ({"tasks": [...]}) are accepted, so the output of
// "analyze --json" can be validated directly.
func loadTasksFile(path string) ([]datatypes.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tasks []datatypes.Task
	if err := json.Unmarshal(data, &tasks); err == nil {
		return tasks, nil
	}

	var wrapped struct {
		Tasks []datatypes.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("expected a JSON task array or an object with a tasks field: %w", err)
	}
	return wrapped.Tasks, nil
}
