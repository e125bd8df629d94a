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
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

// healthProbeTimeout bounds the provider availability sweep so a hung
// backend cannot stall the health endpoint.
const healthProbeTimeout = 3 * time.Second

// HealthVersion is reported by the health endpoint.
const HealthVersion = "1.0.0"

// HandleHealth reports overall service health plus a per-provider
// summary.
//
// The response is always 200; readiness is carried in the body so a
// deployment with every backend down still answers probes instead of
// looking crashed. Status is "healthy" when at least one provider is
// reachable, "unhealthy" otherwise.
func HandleHealth(registry *providers.Registry, streams *thoughts.StreamManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		statuses := registry.Status(ctx)
		available := 0
		for _, s := range statuses {
			if s.Available {
				available++
			}
		}

		status := "healthy"
		if available == 0 {
			status = "unhealthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"service":   "aleutian-intent",
			"version":   HealthVersion,
			"timestamp": datatypes.Timestamp(),
			"dependencies": gin.H{
				"providers":           statuses,
				"providers_available": available,
				"active_streams":      streams.ActiveStreams(),
			},
		})
	}
}
