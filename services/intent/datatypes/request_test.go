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
	"testing"

	"github.com/google/uuid"
)

// =============================================================================
// AnalyzeRequest Validation Tests
// =============================================================================

func TestAnalyzeRequest_Validate_Valid(t *testing.T) {
	req := AnalyzeRequest{
		Text: "Fix the login crash when password contains special characters",
	}
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestAnalyzeRequest_Validate_MissingText(t *testing.T) {
	req := AnalyzeRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected error for missing text")
	}
}

func TestAnalyzeRequest_Validate_TextTooShort(t *testing.T) {
	req := AnalyzeRequest{Text: "too short"}
	if err := req.Validate(); err == nil {
		t.Error("expected error for text under minimum length")
	}
}

func TestAnalyzeRequest_Validate_WhitespaceOnly(t *testing.T) {
	req := AnalyzeRequest{Text: strings.Repeat(" ", 40)}
	if err := req.Validate(); err == nil {
		t.Error("expected error for whitespace-only text")
	}
}

func TestAnalyzeRequest_Validate_TextTooLong(t *testing.T) {
	req := AnalyzeRequest{Text: strings.Repeat("a", MaxRequestTextChars+1)}
	if err := req.Validate(); err == nil {
		t.Error("expected error for text over maximum length")
	}
}

func TestAnalyzeRequest_Validate_TextAtBounds(t *testing.T) {
	req := AnalyzeRequest{Text: strings.Repeat("a", MinRequestTextChars)}
	if err := req.Validate(); err != nil {
		t.Errorf("minimum-length text should validate, got error: %v", err)
	}

	req.Text = strings.Repeat("a", MaxRequestTextChars)
	if err := req.Validate(); err != nil {
		t.Errorf("maximum-length text should validate, got error: %v", err)
	}
}

func TestAnalyzeRequest_Validate_BadRequestID(t *testing.T) {
	req := AnalyzeRequest{
		Text:      "Add a metrics dashboard to the admin console",
		RequestID: "not-a-uuid",
	}
	if err := req.Validate(); err == nil {
		t.Error("expected error for malformed request_id")
	}
}

func TestAnalyzeRequest_EnsureDefaults_GeneratesRequestID(t *testing.T) {
	req := AnalyzeRequest{Text: "Add a metrics dashboard to the admin console"}
	req.EnsureDefaults()

	if req.RequestID == "" {
		t.Fatal("expected request_id to be generated")
	}
	if _, err := uuid.Parse(req.RequestID); err != nil {
		t.Errorf("generated request_id is not a uuid: %v", err)
	}
}

func TestAnalyzeRequest_EnsureDefaults_PreservesRequestID(t *testing.T) {
	id := uuid.NewString()
	req := AnalyzeRequest{
		Text:      "Add a metrics dashboard to the admin console",
		RequestID: id,
	}
	req.EnsureDefaults()
	if req.RequestID != id {
		t.Errorf("existing request_id was replaced: got %q want %q", req.RequestID, id)
	}
}

func TestAnalyzeRequest_NormalizedText(t *testing.T) {
	req := AnalyzeRequest{Text: "  Refactor the billing module for clarity  "}
	if got := req.NormalizedText(); got != "Refactor the billing module for clarity" {
		t.Errorf("unexpected normalized text: %q", got)
	}
}

// =============================================================================
// ValidateTasksRequest Tests
// =============================================================================

func TestValidateTasksRequest_Validate(t *testing.T) {
	req := ValidateTasksRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected error for empty task list")
	}

	req.Tasks = []Task{validTask()}
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

// =============================================================================
// ProviderTestRequest Tests
// =============================================================================

func TestProviderTestRequest_Validate(t *testing.T) {
	req := ProviderTestRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected error for missing provider name")
	}

	req.Provider = "ollama"
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}
