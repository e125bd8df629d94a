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
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianIntent/pkg/validation"
	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// analyzeResponse mirrors the wire shape of a completed analysis.
type analyzeResponse struct {
	RequestID  string                   `json:"request_id"`
	IntentType datatypes.IntentCategory `json:"intent_type"`
	Confidence float64                  `json:"confidence"`
	Summary    string                   `json:"summary"`
	Tasks      []datatypes.Task         `json:"tasks"`
	Metadata   map[string]any           `json:"metadata"`
	Timestamp  int64                    `json:"timestamp"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	text, err := gatherRequirement(args)
	if err != nil {
		log.Fatalf("Failed to read the requirement: %v", err)
	}
	if err := validation.ValidateRequirementText(text); err != nil {
		log.Fatalf("Invalid requirement: %v", err)
	}

	contextMap, err := parseKeyValues(contextKVs)
	if err != nil {
		log.Fatalf("Invalid --context flag: %v", err)
	}
	projectMap, err := parseKeyValues(projectKVs)
	if err != nil {
		log.Fatalf("Invalid --project flag: %v", err)
	}

	id := requestID
	if id != "" {
		id, err = validation.SanitizeRequestID(id)
		if err != nil {
			log.Fatalf("Invalid --request-id flag: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Watch the analysis with: intentctl watch %s\n", id)
	}

	payload := map[string]any{"text": text}
	if contextMap != nil {
		payload["context"] = contextMap
	}
	if projectMap != nil {
		payload["project_info"] = projectMap
	}
	if id != "" {
		payload["request_id"] = id
	}

	body, status, err := postJSON(resolveServerURL()+"/api/v1/process-intent", payload)
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("Analysis failed (%d): %s", status, serverError(body))
	}

	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result analyzeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse the analysis response: %v", err)
	}
	renderAnalysis(result)
}

// gatherRequirement resolves the requirement text from, in order, the
// interactive form, the command arguments, or piped stdin.
func gatherRequirement(args []string) (string, error) {
	if interactive {
		return promptForRequirement()
	}

	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	// No arguments: accept piped input, but never block on a terminal.
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return "", errors.New("pass the requirement as arguments, pipe it on stdin, or use --interactive")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// promptForRequirement collects the requirement through a form.
func promptForRequirement() (string, error) {
	var text string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Requirement").
				Description("Describe the feature, fix or question to analyze").
				CharLimit(validation.MaxRequirementChars).
				Value(&text),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errors.New("cancelled")
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func renderAnalysis(r analyzeResponse) {
	printTitle(fmt.Sprintf("Intent: %s", r.IntentType))
	printKV("Confidence", fmt.Sprintf("%.0f%%", r.Confidence*100))
	printKV("Request ID", r.RequestID)
	if strategy, ok := r.Metadata["strategy"].(string); ok && strategy != "" {
		printKV("Strategy", strategy)
	}
	if cached, ok := r.Metadata["cached"].(bool); ok && cached {
		printKV("Cached", "yes")
	}
	if r.Summary != "" {
		fmt.Println()
		fmt.Println(r.Summary)
	}

	if len(r.Tasks) == 0 {
		return
	}

	fmt.Println()
	printTitle(fmt.Sprintf("Tasks (%d)", len(r.Tasks)))
	for i, task := range r.Tasks {
		title := task.Title
		if richOutput() {
			title = styles.Bold.Render(title)
		}
		fmt.Printf("  %d. %s\n", i+1, title)

		meta := fmt.Sprintf("%s %s, %s priority, ~%.1fh",
			iconBullet, task.Type, task.Priority, task.EstimatedHours)
		if len(task.Dependencies) > 0 {
			meta += fmt.Sprintf(", after %s", strings.Join(task.Dependencies, ", "))
		}
		if richOutput() {
			meta = styles.Muted.Render(meta)
		}
		fmt.Printf("     %s\n", meta)

		if task.Description != "" && task.Description != task.Title {
			fmt.Printf("     %s\n", task.Description)
		}
	}
}
