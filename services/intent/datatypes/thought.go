// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// ThoughtEvent is one human-readable progress milestone emitted while a
// request is being analyzed.
//
// # Description
//
// Events are created by the engine, delivered to at most one live
// subscriber for the owning request, and discarded after delivery. They
// are never persisted. Progress values within one analysis are
// best-effort non-decreasing.
//
// # Fields
//
//   - Timestamp: Unix milliseconds (UTC) when the event was created.
//   - Type: The analysis phase this milestone belongs to.
//   - Message: Human-readable progress line.
//   - Detail: Optional extra context (detected domain, task count).
//   - Progress: Optional overall progress in [0,1].
//   - Metadata: Optional open bag (strategy name, counters).
type ThoughtEvent struct {
	Timestamp int64          `json:"timestamp"`
	Type      ThoughtPhase   `json:"type"`
	Message   string         `json:"message"`
	Detail    string         `json:"detail,omitempty"`
	Progress  *float64       `json:"progress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewThoughtEvent builds an event stamped with the current time.
func NewThoughtEvent(phase ThoughtPhase, message string) ThoughtEvent {
	return ThoughtEvent{
		Timestamp: Timestamp(),
		Type:      phase,
		Message:   message,
	}
}

// WithProgress returns a copy of the event carrying a progress value.
func (e ThoughtEvent) WithProgress(p float64) ThoughtEvent {
	e.Progress = &p
	return e
}

// WithDetail returns a copy of the event carrying a detail string.
func (e ThoughtEvent) WithDetail(detail string) ThoughtEvent {
	e.Detail = detail
	return e
}

// WithMetadata returns a copy of the event carrying a metadata bag.
func (e ThoughtEvent) WithMetadata(meta map[string]any) ThoughtEvent {
	e.Metadata = meta
	return e
}
