// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
)

// Probe defaults for HandleTestProvider. Deliberately tiny so a test
// call costs almost nothing against hosted backends.
const (
	testPrompt      = "Say hello"
	testMaxTokens   = 20
	testTemperature = float32(0.7)
)

// HandleListProviders reports a diagnostic snapshot of every
// registered backend: availability, smoothed latency, circuit state,
// and tracked health, ordered by selection priority.
func HandleListProviders(registry *providers.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intentTracer.Start(c.Request.Context(), "HandleListProviders")
		defer span.End()

		statuses := registry.Status(ctx)
		span.SetAttributes(attribute.Int("providers", len(statuses)))

		c.JSON(http.StatusOK, gin.H{
			"providers": statuses,
			"timestamp": datatypes.Timestamp(),
		})
	}
}

// HandleTestProvider probes one named backend with a trivial prompt.
//
// # Description
//
// Goes straight to the provider, deliberately skipping retry and the
// circuit breaker, so the response reflects the raw backend state. A
// generation failure is reported as 502 with the provider's error.
//
// # Status Codes
//
//   - 200: Probe succeeded; body carries the response and latency.
//   - 400: Malformed body or missing provider name.
//   - 404: No provider registered under that name.
//   - 502: The backend refused or failed the generation.
func HandleTestProvider(registry *providers.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := intentTracer.Start(c.Request.Context(), "HandleTestProvider")
		defer span.End()

		var req datatypes.ProviderTestRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			slog.Error("Failed to parse the provider test request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.SetAttributes(attribute.String("provider", req.Provider))

		p := registry.Lookup(req.Provider)
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider: " + req.Provider})
			return
		}

		prompt := req.Prompt
		if prompt == "" {
			prompt = testPrompt
		}
		temperature := testTemperature
		maxTokens := testMaxTokens
		params := providers.GenerationParams{
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		}

		start := time.Now()
		text, err := p.Generate(ctx, prompt, params)
		latency := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Warn("Provider test failed",
				"provider", req.Provider,
				"error", err,
				"latency_ms", latency.Milliseconds())
			c.JSON(http.StatusBadGateway, gin.H{
				"provider":  req.Provider,
				"error":     err.Error(),
				"timestamp": datatypes.Timestamp(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"provider":   req.Provider,
			"response":   text,
			"latency_ms": latency.Milliseconds(),
			"timestamp":  datatypes.Timestamp(),
		})
	}
}

// HandlePromptTemplates lists the loaded prompt template names,
// including any overrides picked up from the template directory.
func HandlePromptTemplates(library *prompts.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"templates": library.Names(),
			"timestamp": datatypes.Timestamp(),
		})
	}
}
