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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL   string   // --server override for the intent service URL
	jsonOutput  bool     // print raw JSON responses for scripting
	contextKVs  []string // key=value pairs for the analysis context
	projectKVs  []string // key=value pairs for the project info
	requestID   string   // client-chosen request ID for analyze
	interactive bool     // prompt for the requirement in a form
	probePrompt string   // prompt override for providers test

	rootCmd = &cobra.Command{
		Use:   "intentctl",
		Short: "A cli to analyze requirements through the Aleutian intent service",
		Long: `Intentctl talks to a running intentd server to turn free-form
				requirement text into a classified intent with a task breakdown,
				follow the live thought stream of an analysis, and inspect the
				health of the LLM providers behind it.`,
	}

	// --- Analysis ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze [requirement text]",
		Short: "Analyze a requirement and print the intent and task breakdown",
		Run:   runAnalyze, // Defined in cmd_analyze.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [request_id]",
		Short: "Follow the live thought stream of an in-flight analysis",
		Long: `Watch attaches to the progress stream of an analysis that another
				client started with a known request ID. The stream only exists
				while the analysis is running; watching a finished or unknown
				request ID reports an error.`,
		Args: cobra.ExactArgs(1),
		Run:  runWatch, // Defined in cmd_watch.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate [tasks.json]",
		Short: "Validate a task breakdown file for cycles and structural problems",
		Args:  cobra.ExactArgs(1),
		Run:   runValidate, // Defined in cmd_validate.go
	}

	// --- Providers ---
	providersCmd = &cobra.Command{
		Use:   "providers",
		Short: "Inspect and exercise the LLM providers behind the service",
	}
	listProvidersCmd = &cobra.Command{
		Use:   "list",
		Short: "List providers with availability and circuit state",
		Run:   runListProviders, // Defined in cmd_providers.go
	}
	testProviderCmd = &cobra.Command{
		Use:   "test [provider]",
		Short: "Send a test prompt through a single provider",
		Args:  cobra.ExactArgs(1),
		Run:   runTestProvider, // Defined in cmd_providers.go
	}
	templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "List the prompt templates the service analyzes with",
		Run:   runListTemplates, // Defined in cmd_providers.go
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Show service health and provider reachability",
		Run:   runHealth, // Defined in cmd_health.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Intent service URL (default: $ALEUTIAN_INTENT_URL or http://localhost:12310)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print raw JSON responses for scripting")

	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringArrayVar(&contextKVs, "context", nil,
		"Context key=value pair, repeatable (e.g. --context language=go)")
	analyzeCmd.Flags().StringArrayVar(&projectKVs, "project", nil,
		"Project info key=value pair, repeatable (e.g. --project name=billing)")
	analyzeCmd.Flags().StringVar(&requestID, "request-id", "",
		"UUID v4 to tag the analysis with (for watching from another terminal)")
	analyzeCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Prompt for the requirement in a form instead of reading arguments")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(listProvidersCmd)
	providersCmd.AddCommand(testProviderCmd)
	testProviderCmd.Flags().StringVar(&probePrompt, "prompt", "",
		"Prompt to send instead of the server default")
	providersCmd.AddCommand(templatesCmd)

	rootCmd.AddCommand(healthCmd)
}
