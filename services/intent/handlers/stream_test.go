// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the SSE and websocket thought stream handlers

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

const streamTestID = "a3bb189e-8bf9-4888-9912-ace4e6543002"

func newStreamRouter(t *testing.T) (*gin.Engine, *thoughts.StreamManager) {
	t.Helper()

	streams := thoughts.NewStreamManager(8, time.Minute)
	t.Cleanup(func() { _ = streams.Close() })

	router := gin.New()
	router.GET("/api/v1/process-intent/:request_id/stream", HandleThoughtStream(streams))
	router.GET("/api/v1/process-intent/:request_id/ws", HandleThoughtSocket(streams))
	return router, streams
}

// =============================================================================
// SSE Tests
// =============================================================================

func TestHandleThoughtStream_UnknownStream(t *testing.T) {
	router, _ := newStreamRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/process-intent/"+streamTestID+"/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleThoughtStream_InvalidRequestID(t *testing.T) {
	router, _ := newStreamRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/process-intent/not-a-uuid/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleThoughtStream_DeliversBufferedEvents(t *testing.T) {
	router, streams := newStreamRouter(t)

	streams.CreateStream(streamTestID)
	ctx := context.Background()
	require.True(t, streams.Emit(ctx, streamTestID, datatypes.NewThoughtEvent(datatypes.PhaseUnderstanding, "Understanding your request...")))
	require.True(t, streams.Emit(ctx, streamTestID, datatypes.NewThoughtEvent(datatypes.PhaseComplete, "Analysis complete!")))
	streams.CloseStream(streamTestID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/process-intent/"+streamTestID+"/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	body := w.Body.String()
	frames := parseSSEFrames(t, body)
	require.Len(t, frames, 2)
	assert.Equal(t, datatypes.PhaseUnderstanding, frames[0].Type)
	assert.Equal(t, datatypes.PhaseComplete, frames[1].Type)
	assert.NotZero(t, frames[0].Timestamp)
}

func TestHandleThoughtStream_ClientDisconnect(t *testing.T) {
	router, streams := newStreamRouter(t)
	streams.CreateStream(streamTestID)

	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/process-intent/"+streamTestID+"/stream", nil)
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
}

// parseSSEFrames decodes every data frame in an SSE body.
func parseSSEFrames(t *testing.T, body string) []datatypes.ThoughtEvent {
	t.Helper()

	var events []datatypes.ThoughtEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev datatypes.ThoughtEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

// =============================================================================
// WebSocket Tests
// =============================================================================

func TestHandleThoughtSocket_UnknownStream(t *testing.T) {
	router, _ := newStreamRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/process-intent/"+streamTestID+"/ws", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleThoughtSocket_DeliversEventsAndCloses(t *testing.T) {
	router, streams := newStreamRouter(t)

	streams.CreateStream(streamTestID)
	require.True(t, streams.Emit(context.Background(), streamTestID,
		datatypes.NewThoughtEvent(datatypes.PhaseDecomposing, "Breaking down into tasks...")))

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/process-intent/" + streamTestID + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	var ev datatypes.ThoughtEvent
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, datatypes.PhaseDecomposing, ev.Type)
	assert.Equal(t, "Breaking down into tasks...", ev.Message)

	// Ending the stream must surface as a normal close frame.
	streams.CloseStream(streamTestID)
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"expected normal closure, got %v", err)
}
