// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package thoughts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for stream lifecycle and event delivery.
var (
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "active_streams",
		Help:      "Thought streams currently registered",
	})

	streamsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "streams_expired_total",
		Help:      "Idle thought streams reclaimed by the janitor",
	})

	thoughtsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "thoughts_emitted_total",
		Help:      "Thought events delivered to a stream",
	}, []string{"phase"})

	thoughtsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "intent",
		Name:      "thoughts_dropped_total",
		Help:      "Thought events dropped instead of delivered",
	}, []string{"reason"})
)
