// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package thoughts fans live analysis progress out to per-request
// streams. The engine emits ThoughtEvents during an analysis; the
// transport layer subscribes and forwards them over SSE or WebSocket.
package thoughts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

const (
	// DefaultStreamCapacity bounds the per-stream event buffer. A slow
	// or absent consumer costs dropped events, never a blocked engine.
	DefaultStreamCapacity = 64

	// DefaultMaxStreamAge is how long an unclosed stream may live before
	// the janitor reclaims it. Well past any request deadline.
	DefaultMaxStreamAge = 10 * time.Minute

	// janitorInterval is how often expired streams are swept.
	janitorInterval = time.Minute
)

// Drop reasons for metric attribution.
const (
	dropStreamFull = "stream_full"
	dropNoStream   = "no_stream"
)

// stream is one live per-request event channel.
type stream struct {
	ch      chan datatypes.ThoughtEvent
	created time.Time
	closed  bool
}

// StreamManager is the registry of live thought streams, keyed by
// request ID.
//
// # Description
//
// Each stream is a bounded channel created before an analysis starts
// and closed when it finishes. Emission never blocks: when a stream's
// buffer is full the event is dropped and counted, and emitting to a
// request with no stream is a warn-level no-op, so analysis always
// proceeds whether or not anyone is watching.
//
// Closing a stream closes its channel, which is the end-of-stream
// sentinel subscribers rely on. A janitor reclaims streams whose
// owner never closed them.
//
// Thread Safety: All methods are safe for concurrent use.
type StreamManager struct {
	capacity int
	maxAge   time.Duration

	mu      sync.RWMutex
	streams map[string]*stream

	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamManager builds a manager and starts its janitor. Zero values
// select DefaultStreamCapacity and DefaultMaxStreamAge.
func NewStreamManager(capacity int, maxAge time.Duration) *StreamManager {
	if capacity <= 0 {
		capacity = DefaultStreamCapacity
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxStreamAge
	}
	m := &StreamManager{
		capacity: capacity,
		maxAge:   maxAge,
		streams:  make(map[string]*stream),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// CreateStream registers a stream for the request. If a stream already
// exists under the same ID it is closed first, so a retried request
// never delivers into a channel nobody reads anymore.
func (m *StreamManager) CreateStream(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.streams[requestID]; ok {
		if !old.closed {
			old.closed = true
			close(old.ch)
		}
		slog.Warn("Replacing existing thought stream", "request_id", requestID)
	}

	m.streams[requestID] = &stream{
		ch:      make(chan datatypes.ThoughtEvent, m.capacity),
		created: time.Now(),
	}
	activeStreams.Set(float64(len(m.streams)))
	slog.Debug("Created thought stream", "request_id", requestID)
}

// CloseStream closes the request's stream, signalling end-of-stream to
// its subscriber, and removes it from the registry. Closing an unknown
// stream is a no-op.
func (m *StreamManager) CloseStream(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[requestID]
	if !ok {
		return
	}
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	delete(m.streams, requestID)
	activeStreams.Set(float64(len(m.streams)))
	slog.Debug("Closed thought stream", "request_id", requestID)
}

// Emit delivers an event to the request's stream without blocking.
//
// # Outputs
//
//   - true: The event was buffered for the subscriber.
//   - false: No stream exists for the request, or its buffer is full;
//     the event was dropped and the drop counted.
func (m *StreamManager) Emit(ctx context.Context, requestID string, event datatypes.ThoughtEvent) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.streams[requestID]
	if !ok || s.closed {
		slog.Warn("No active thought stream",
			"request_id", requestID,
			"phase", string(event.Type))
		thoughtsDropped.WithLabelValues(dropNoStream).Inc()
		return false
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("thought", trace.WithAttributes(
			attribute.String("phase", string(event.Type)),
			attribute.String("message", event.Message),
		))
	}

	select {
	case s.ch <- event:
		thoughtsEmitted.WithLabelValues(string(event.Type)).Inc()
		return true
	default:
		slog.Warn("Thought stream full, dropping event",
			"request_id", requestID,
			"phase", string(event.Type))
		thoughtsDropped.WithLabelValues(dropStreamFull).Inc()
		return false
	}
}

// Subscribe returns the receive side of the request's stream. The
// channel closes when the stream does. Each stream supports a single
// consumer; a second subscriber would steal events from the first.
func (m *StreamManager) Subscribe(requestID string) (<-chan datatypes.ThoughtEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.streams[requestID]
	if !ok {
		return nil, false
	}
	return s.ch, true
}

// ActiveStreams reports how many streams are currently registered.
func (m *StreamManager) ActiveStreams() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Sweep closes and removes every stream older than the maximum age,
// returning the number reclaimed. The janitor calls this periodically;
// it is exported so operators and tests can force a pass.
func (m *StreamManager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reclaimed int
	for id, s := range m.streams {
		if now.Sub(s.created) < m.maxAge {
			continue
		}
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
		delete(m.streams, id)
		reclaimed++
	}
	if reclaimed > 0 {
		streamsExpired.Add(float64(reclaimed))
		activeStreams.Set(float64(len(m.streams)))
	}
	return reclaimed
}

// Close stops the janitor and closes every live stream. The manager
// must not be used after Close.
func (m *StreamManager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		for id, s := range m.streams {
			if !s.closed {
				s.closed = true
				close(s.ch)
			}
			delete(m.streams, id)
		}
		activeStreams.Set(0)
		m.mu.Unlock()
	})
	return nil
}

// janitor reclaims streams whose owner never closed them, such as a
// handler that panicked between CreateStream and CloseStream.
func (m *StreamManager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				slog.Info("Reclaimed expired thought streams", "count", n)
			}
		}
	}
}
