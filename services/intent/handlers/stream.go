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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianIntent/pkg/validation"
	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

// KeepAliveInterval is how often an idle SSE connection receives a
// comment frame. Comments are ignored by clients but reset the timeout
// counters of load balancers (AWS ALB, Nginx default 60s).
const KeepAliveInterval = 15 * time.Second

// SetSSEHeaders configures HTTP response headers for SSE streaming.
//
// Sets Content-Type: text/event-stream, disables caching and proxy
// buffering (X-Accel-Buffering: no for nginx). Must be called before
// any response body is written.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// HandleThoughtStream streams analysis progress as Server-Sent Events.
//
// # Description
//
// Subscribes to the thought stream registered for the request ID and
// relays each event as a "data: {json}\n\n" frame, flushing after every
// write. The connection ends when the stream closes (analysis done),
// when the client disconnects, or when the stream is reclaimed by age.
//
// Events are delivered live and never replayed: a subscriber that
// attaches after analysis completed gets 404, and one that attaches
// mid-flight sees only what is still buffered plus everything after.
//
// # Status Codes
//
//   - 200: SSE stream (text/event-stream).
//   - 400: Request ID is not a UUID v4.
//   - 404: No active stream for the request ID.
func HandleThoughtStream(streams *thoughts.StreamManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := validation.SanitizeRequestID(c.Param("request_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ch, ok := streams.Subscribe(requestID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active stream for request"})
			return
		}

		SetSSEHeaders(c.Writer)
		c.Writer.Flush()

		slog.Info("SSE subscriber attached", "request_id", requestID)

		ticker := time.NewTicker(KeepAliveInterval)
		defer ticker.Stop()
		clientGone := c.Request.Context().Done()

		for {
			select {
			case <-clientGone:
				slog.Debug("SSE client disconnected", "request_id", requestID)
				return

			case <-ticker.C:
				if err := writeKeepAlive(c.Writer); err != nil {
					return
				}

			case event, open := <-ch:
				if !open {
					// Stream closed: the analysis is over and every
					// buffered event has been drained.
					return
				}
				if err := writeThought(c.Writer, event); err != nil {
					slog.Warn("Failed to write SSE event",
						"request_id", requestID, "error", err)
					return
				}
			}
		}
	}
}

// writeThought serializes one event as a data-only SSE frame and
// flushes it.
func writeThought(w gin.ResponseWriter, event datatypes.ThoughtEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.Flush()
	return nil
}

// writeKeepAlive emits an SSE comment frame.
func writeKeepAlive(w gin.ResponseWriter) error {
	if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.Flush()
	return nil
}
