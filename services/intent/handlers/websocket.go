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
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianIntent/pkg/validation"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// writeWait bounds how long a single websocket write may block.
const writeWait = 10 * time.Second

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleThoughtSocket streams analysis progress over a websocket, one
// JSON message per thought event.
//
// # Description
//
// The websocket variant of HandleThoughtStream for clients behind
// proxies that mangle SSE. The subscription is resolved before the
// upgrade so an unknown request ID still gets a plain 404. After the
// upgrade the peer is not expected to send anything; its read side is
// drained only to notice disconnects. When the stream closes the
// handler sends a normal close frame and hangs up.
func HandleThoughtSocket(streams *thoughts.StreamManager) gin.HandlerFunc {
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

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("Websocket subscriber attached", "request_id", requestID)

		// Drain reads so control frames are processed and a client
		// hangup surfaces as a read error.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(KeepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-clientGone:
				slog.Debug("Websocket client disconnected", "request_id", requestID)
				return

			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}

			case event, open := <-ch:
				if !open {
					msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete")
					_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
					return
				}
				_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := sendJSON(ws, event); err != nil {
					return
				}
			}
		}
	}
}
