// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package strategies

import (
	"context"
	"testing"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// TestKeyword_Classification tests the substring classification,
// including the build-before-fix precedence.
func TestKeyword_Classification(t *testing.T) {
	tests := []struct {
		text string
		want datatypes.IntentCategory
	}{
		{"create a dashboard", datatypes.IntentFeatureRequest},
		{"fix the crash", datatypes.IntentBugFix},
		{"test the parser", datatypes.IntentTesting},
		{"hello world", datatypes.IntentUnknown},
		// "build" is checked before "fix", so mixed wording goes to
		// feature_request.
		{"fix the build", datatypes.IntentFeatureRequest},
	}

	k := NewKeyword()
	for _, tt := range tests {
		result, err := k.Analyze(context.Background(), testRequest(tt.text))
		if err != nil {
			t.Fatalf("Analyze(%q) returned error: %v", tt.text, err)
		}
		if result.IntentType != tt.want {
			t.Errorf("Analyze(%q) intent = %s, want %s", tt.text, result.IntentType, tt.want)
		}
	}
}

// TestKeyword_TaskShape tests the single generic task the strategy
// always produces.
func TestKeyword_TaskShape(t *testing.T) {
	k := NewKeyword()

	result, err := k.Analyze(context.Background(), testRequest("we need an api for billing"))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.IntentType != datatypes.IntentFeatureRequest {
		t.Errorf("intent = %s, want feature_request", result.IntentType)
	}
	if result.Confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4", result.Confidence)
	}
	if result.Summary != "Basic analysis: feature_request" {
		t.Errorf("summary = %q", result.Summary)
	}
	if got := result.Metadata[datatypes.MetaStrategy]; got != StrategyKeyword {
		t.Errorf("strategy metadata = %v, want %s", got, StrategyKeyword)
	}

	if len(result.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(result.Tasks))
	}
	task := result.Tasks[0]
	if task.Type != datatypes.TaskTypeAPI {
		t.Errorf("type = %s, want api for api-flavored text", task.Type)
	}
	if task.Title != "Implement requested functionality" || task.EstimatedHours != 8.0 {
		t.Errorf("task shape = %+v", task)
	}
	if task.Description != "we need an api for billing" {
		t.Errorf("description = %q, want the full request text", task.Description)
	}
	if len(task.AcceptanceCriteria) != 1 || task.AcceptanceCriteria[0] != "Functionality implemented as requested" {
		t.Errorf("acceptance criteria = %v", task.AcceptanceCriteria)
	}
}

// TestKeyword_NeverFails tests that even empty input yields a result the
// chain will accept.
func TestKeyword_NeverFails(t *testing.T) {
	k := NewKeyword()

	result, err := k.Analyze(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.IntentType != datatypes.IntentUnknown {
		t.Errorf("intent = %s, want unknown", result.IntentType)
	}
	if err := checkResult(result); err != nil {
		t.Errorf("keyword result fails the chain's check: %v", err)
	}
}
