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
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

// maxTrackedClients caps the limiter table. When the cap is hit the
// sweep reclaims buckets idle for several windows; a client evicted
// mid-window simply starts a fresh bucket.
const maxTrackedClients = 10000

// clientBucket pairs a limiter with its last activity for sweeping.
type clientBucket struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

// RateLimit admits each client IP up to `requests` calls per `window`.
//
// # Description
//
// Buckets are per client IP (gin's ClientIP, which honors trusted
// proxy headers) so one noisy integration cannot starve the rest. A
// denied request gets 429 with a Retry-After header estimating when
// the next token lands.
func RateLimit(requests float64, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*clientBucket)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		bucket, ok := buckets[ip]
		if !ok {
			if len(buckets) >= maxTrackedClients {
				sweepBuckets(buckets, now, window)
			}
			bucket = &clientBucket{limiter: resilience.NewRateLimiter(requests, window)}
			buckets[ip] = bucket
		}
		bucket.lastSeen = now
		mu.Unlock()

		if !bucket.limiter.Allow() {
			retryAfter := bucket.limiter.RetryAfter()
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// sweepBuckets drops buckets idle long enough that their tokens have
// fully replenished anyway. Caller holds the lock.
func sweepBuckets(buckets map[string]*clientBucket, now time.Time, window time.Duration) {
	cutoff := now.Add(-3 * window)
	for ip, b := range buckets {
		if b.lastSeen.Before(cutoff) {
			delete(buckets, ip)
		}
	}
}
