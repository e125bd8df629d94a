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

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Request Limits
// =============================================================================

const (
	// MinRequestTextChars is the minimum length of requirement text after
	// trimming. Shorter inputs carry too little signal to analyze.
	MinRequestTextChars = 10

	// MaxRequestTextChars is the maximum length of requirement text.
	// Larger payloads are rejected before any strategy runs.
	MaxRequestTextChars = 5000
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// intentValidate is the validator instance for intent datatypes.
// Initialized in init() with custom validators.
var intentValidate *validator.Validate

func init() {
	intentValidate = validator.New()

	// Length bounds apply to the trimmed text, which the standard min/max
	// tags cannot express.
	_ = intentValidate.RegisterValidation("reqtext", validateRequestText)
}

// validateRequestText checks trimmed requirement-text length bounds.
func validateRequestText(fl validator.FieldLevel) bool {
	text := strings.TrimSpace(fl.Field().String())
	return len(text) >= MinRequestTextChars && len(text) <= MaxRequestTextChars
}

// =============================================================================
// Analyze Request
// =============================================================================

// AnalyzeRequest is the input to one intent analysis.
//
// # Description
//
// Carries the free-form requirement text plus optional context maps that
// strategies may fold into prompts. Every request has a unique ID used to
// correlate the result with its live thought stream.
//
// # Fields
//
//   - Text: Required. The requirement in natural language, 10-5000 chars
//     after trimming.
//   - Context: Optional. Caller-supplied key/value context (team, repo,
//     prior decisions). Participates in the cache key.
//   - ProjectInfo: Optional. Project facts (stack, language, conventions).
//     Folded into prompts but not into the cache key.
//   - RequestID: Identifier for stream correlation. Generated when absent.
//
// # Validation
//
// Uses go-playground/validator:
//   - Text: required, trimmed length within [10, 5000]
//   - RequestID: optional, but must be a UUID v4 when present
type AnalyzeRequest struct {
	Text        string         `json:"text" validate:"required,reqtext"`
	Context     map[string]any `json:"context,omitempty"`
	ProjectInfo map[string]any `json:"project_info,omitempty"`
	RequestID   string         `json:"request_id,omitempty" validate:"omitempty,uuid4"`
}

// Validate validates the AnalyzeRequest fields.
func (r *AnalyzeRequest) Validate() error {
	return intentValidate.Struct(r)
}

// EnsureDefaults populates the RequestID when the client did not
// provide one.
func (r *AnalyzeRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
}

// NormalizedText returns the trimmed requirement text. All strategies and
// the cache key operate on the normalized form so surrounding whitespace
// never produces distinct analyses.
func (r *AnalyzeRequest) NormalizedText() string {
	return strings.TrimSpace(r.Text)
}

// =============================================================================
// Validate-Tasks Request
// =============================================================================

// ValidateTasksRequest is the input to standalone task-breakdown
// validation, independent of any analysis.
type ValidateTasksRequest struct {
	Tasks []Task `json:"tasks" validate:"required,min=1"`
}

// Validate validates the ValidateTasksRequest fields.
func (r *ValidateTasksRequest) Validate() error {
	return intentValidate.Struct(r)
}

// =============================================================================
// Provider Test Request
// =============================================================================

// ProviderTestRequest asks the service to probe one provider with a
// trivial generation call.
type ProviderTestRequest struct {
	Provider string `json:"provider" validate:"required"`
	Prompt   string `json:"prompt,omitempty"`
}

// Validate validates the ProviderTestRequest fields.
func (r *ProviderTestRequest) Validate() error {
	return intentValidate.Struct(r)
}

// Timestamp returns the current UTC time in Unix milliseconds, the wire
// format used for all timestamps in this service.
func Timestamp() int64 {
	return time.Now().UnixMilli()
}
