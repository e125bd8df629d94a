// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics creates gin middleware that records the request counter and
// latency histogram for every route.
//
// Description:
//
//	Labels use the route template (c.FullPath()), not the raw URL, so
//	/api/v1/process-intent/:request_id/stream stays one series no
//	matter how many request IDs pass through it. Requests that match
//	no route are grouped under "unmatched".
//
// Thread Safety: Safe for concurrent use.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestsTotal.WithLabelValues(endpoint, status).Inc()
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
