// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the per-client rate limit middleware

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(requests float64, window time.Duration) *gin.Engine {
	router := gin.New()
	router.POST("/limited", RateLimit(requests, window), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func hit(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/limited", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_DeniesAfterBudget(t *testing.T) {
	router := limitedRouter(2, time.Minute)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1111").Code)

	w := hit(router, "10.0.0.1:1111")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")

	retryAfter := w.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)
	seconds, err := strconv.Atoi(retryAfter)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seconds, 1)
}

func TestRateLimit_BucketsAreIndependentPerClient(t *testing.T) {
	router := limitedRouter(1, time.Minute)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:2222").Code,
		"same IP, different port shares the bucket")

	// A different client IP still has its full budget.
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.2:1111").Code)
}

func TestRateLimit_Replenishes(t *testing.T) {
	router := limitedRouter(1, 50*time.Millisecond)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:1111").Code)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1111").Code)
}
