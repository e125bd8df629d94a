// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianIntent/services/intent/config"
	"github.com/AleutianAI/AleutianIntent/services/intent/engine"
	"github.com/AleutianAI/AleutianIntent/services/intent/handlers"
	"github.com/AleutianAI/AleutianIntent/services/intent/observability"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

// SetupRoutes registers every endpoint of the intent service.
//
// The rate limiter guards only the analysis endpoint, matching how the
// limit is meant to be spent: stream subscriptions and diagnostics are
// cheap, LLM-backed analyses are not. Health and metrics sit outside
// the API group so probes and scrapers are never throttled.
func SetupRoutes(router *gin.Engine, analyzer *engine.Analyzer, streams *thoughts.StreamManager,
	library *prompts.Library, sink *observability.AnalysisSink, cfg *config.Config) {

	registry := analyzer.Registry()

	router.GET("/health", handlers.HandleHealth(registry, streams))
	router.GET("/metrics", metricsHandler())

	// API version 1 group
	v1 := router.Group("/api/v1")
	{
		v1.POST("/process-intent",
			handlers.RateLimit(cfg.RateLimit, cfg.RateWindow),
			handlers.HandleProcessIntent(analyzer, streams, sink, cfg.RequestTimeout))
		v1.GET("/process-intent/:request_id/stream", handlers.HandleThoughtStream(streams))
		v1.GET("/process-intent/:request_id/ws", handlers.HandleThoughtSocket(streams))
		v1.POST("/validate-tasks", handlers.HandleValidateTasks())
		v1.GET("/providers", handlers.HandleListProviders(registry))
		v1.POST("/providers/test", handlers.HandleTestProvider(registry))
		v1.GET("/prompt-templates", handlers.HandlePromptTemplates(library))
	}
}

// metricsHandler serves the Prometheus registry. The telemetry layer
// provides a handler when its exporter is active; otherwise the
// promauto vectors are still in the default registry and promhttp
// serves them directly.
func metricsHandler() gin.HandlerFunc {
	h := observability.MetricsHandler()
	if h == nil {
		h = promhttp.Handler()
	}
	return gin.WrapH(h)
}
