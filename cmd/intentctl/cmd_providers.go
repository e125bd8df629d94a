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

	"github.com/spf13/cobra"
)

// providerStatus mirrors one entry of the providers list wire shape.
type providerStatus struct {
	Name         string  `json:"name"`
	Priority     int     `json:"priority"`
	Available    bool    `json:"available"`
	LatencyMS    float64 `json:"latency_ms"`
	CircuitState string  `json:"circuit_state"`
	Healthy      bool    `json:"healthy"`
}

func runListProviders(cmd *cobra.Command, args []string) {
	body, status, err := getJSON(resolveServerURL() + "/api/v1/providers")
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("Provider listing failed (%d): %s", status, serverError(body))
	}

	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result struct {
		Providers []providerStatus `json:"providers"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse the provider listing: %v", err)
	}

	if len(result.Providers) == 0 {
		fmt.Println("No providers configured.")
		return
	}

	printTitle("Providers")
	for _, p := range result.Providers {
		detail := fmt.Sprintf("priority %d, circuit %s", p.Priority, p.CircuitState)
		if p.Available {
			detail += fmt.Sprintf(", %.0fms", p.LatencyMS)
		}
		if richOutput() {
			detail = styles.Muted.Render(detail)
		}
		fmt.Printf("  %s %-10s %s\n", statusIcon(p.Available), p.Name, detail)
	}
}

func runTestProvider(cmd *cobra.Command, args []string) {
	payload := map[string]any{"provider": args[0]}
	if probePrompt != "" {
		payload["prompt"] = probePrompt
	}

	body, status, err := postJSON(resolveServerURL()+"/api/v1/providers/test", payload)
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}

	if jsonOutput {
		fmt.Println(string(body))
		if status != http.StatusOK {
			log.Fatalf("Provider test failed (%d)", status)
		}
		return
	}

	if status != http.StatusOK {
		log.Fatalf("Provider test failed (%d): %s", status, serverError(body))
	}

	var result struct {
		Provider  string `json:"provider"`
		Response  string `json:"response"`
		LatencyMS int64  `json:"latency_ms"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse the provider test response: %v", err)
	}

	fmt.Printf("%s %s answered in %dms\n", statusIcon(true), result.Provider, result.LatencyMS)
	if result.Response != "" {
		fmt.Printf("  %s\n", result.Response)
	}
}

func runListTemplates(cmd *cobra.Command, args []string) {
	body, status, err := getJSON(resolveServerURL() + "/api/v1/prompt-templates")
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}
	if status != http.StatusOK {
		log.Fatalf("Template listing failed (%d): %s", status, serverError(body))
	}

	if jsonOutput {
		fmt.Println(string(body))
		return
	}

	var result struct {
		Templates []string `json:"templates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse the template listing: %v", err)
	}

	printTitle("Prompt templates")
	for _, name := range result.Templates {
		fmt.Printf("  %s %s\n", iconBullet, name)
	}
}
