// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the provider diagnostic and health handlers

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

// fakeProvider is a canned backend for handler tests.
type fakeProvider struct {
	name      string
	available bool
	reply     string
	err       error
}

func (f *fakeProvider) Name() string                       { return f.name }
func (f *fakeProvider) Priority() int                      { return 1 }
func (f *fakeProvider) IsAvailable(_ context.Context) bool { return f.available }
func (f *fakeProvider) Latency() time.Duration             { return 5 * time.Millisecond }
func (f *fakeProvider) Close() error                       { return nil }

func (f *fakeProvider) Generate(_ context.Context, _ string, _ providers.GenerationParams) (string, error) {
	return f.reply, f.err
}

// =============================================================================
// HandleListProviders Tests
// =============================================================================

func TestHandleListProviders(t *testing.T) {
	registry := providers.NewRegistry(
		&fakeProvider{name: "ollama", available: true, reply: "hi"},
		&fakeProvider{name: "groq", available: false},
	)
	t.Cleanup(func() { _ = registry.Close() })

	router := gin.New()
	router.GET("/api/v1/providers", HandleListProviders(registry))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/providers", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Providers []providers.ProviderStatus `json:"providers"`
		Timestamp int64                      `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 2)
	assert.NotZero(t, resp.Timestamp)

	byName := map[string]providers.ProviderStatus{}
	for _, s := range resp.Providers {
		byName[s.Name] = s
	}
	assert.True(t, byName["ollama"].Available)
	assert.False(t, byName["groq"].Available)
}

// =============================================================================
// HandleTestProvider Tests
// =============================================================================

func testProviderRouter(t *testing.T, ps ...providers.Provider) *gin.Engine {
	t.Helper()

	registry := providers.NewRegistry(ps...)
	t.Cleanup(func() { _ = registry.Close() })

	router := gin.New()
	router.POST("/api/v1/providers/test", HandleTestProvider(registry))
	return router
}

func TestHandleTestProvider_Success(t *testing.T) {
	router := testProviderRouter(t, &fakeProvider{name: "ollama", available: true, reply: "Hello!"})

	w := postJSON(router, "/api/v1/providers/test", map[string]any{"provider": "ollama"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ollama", resp["provider"])
	assert.Equal(t, "Hello!", resp["response"])
	assert.Contains(t, resp, "latency_ms")
}

func TestHandleTestProvider_UnknownProvider(t *testing.T) {
	router := testProviderRouter(t, &fakeProvider{name: "ollama", available: true})

	w := postJSON(router, "/api/v1/providers/test", map[string]any{"provider": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTestProvider_MissingName(t *testing.T) {
	router := testProviderRouter(t, &fakeProvider{name: "ollama", available: true})

	w := postJSON(router, "/api/v1/providers/test", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTestProvider_BackendFailure(t *testing.T) {
	router := testProviderRouter(t, &fakeProvider{
		name: "ollama", available: true, err: errors.New("connection refused"),
	})

	w := postJSON(router, "/api/v1/providers/test", map[string]any{"provider": "ollama"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestHandleTestProvider_MalformedBody(t *testing.T) {
	router := testProviderRouter(t, &fakeProvider{name: "ollama", available: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/providers/test", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// HandleHealth Tests
// =============================================================================

func healthRouter(t *testing.T, ps ...providers.Provider) *gin.Engine {
	t.Helper()

	registry := providers.NewRegistry(ps...)
	t.Cleanup(func() { _ = registry.Close() })

	streams := thoughts.NewStreamManager(8, time.Minute)
	t.Cleanup(func() { _ = streams.Close() })

	router := gin.New()
	router.GET("/health", HandleHealth(registry, streams))
	return router
}

func TestHandleHealth_Healthy(t *testing.T) {
	router := healthRouter(t, &fakeProvider{name: "ollama", available: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status       string `json:"status"`
		Service      string `json:"service"`
		Dependencies struct {
			ProvidersAvailable int `json:"providers_available"`
			ActiveStreams      int `json:"active_streams"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "aleutian-intent", resp.Service)
	assert.Equal(t, 1, resp.Dependencies.ProvidersAvailable)
	assert.Equal(t, 0, resp.Dependencies.ActiveStreams)
}

func TestHandleHealth_NoProvidersReachable(t *testing.T) {
	router := healthRouter(t, &fakeProvider{name: "ollama", available: false})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	// Probes still get an answer; readiness lives in the body.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}
