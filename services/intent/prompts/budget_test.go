// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestRequestBudget tests the per-template budget table.
func TestRequestBudget(t *testing.T) {
	if got := RequestBudget(TemplateStructured); got != structuredRequestBudget {
		t.Errorf("structured budget = %d, want %d", got, structuredRequestBudget)
	}
	for _, name := range []string{TemplateGuidedClassify, TemplateGuidedTasks, TemplateGuidedSummary, TemplateSimple} {
		if got := RequestBudget(name); got != defaultRequestBudget {
			t.Errorf("budget for %s = %d, want %d", name, got, defaultRequestBudget)
		}
	}
}

// TestFitRequest_UnderBudget tests that short text passes through intact.
func TestFitRequest_UnderBudget(t *testing.T) {
	text := "Fix the login crash when password contains special characters"

	res := FitRequest(TemplateSimple, text)
	if res.Truncated {
		t.Error("short text should not be marked truncated")
	}
	if res.Text != text {
		t.Errorf("short text was modified: %q", res.Text)
	}
}

// TestFitRequest_OverBudget tests sentence-boundary truncation for a
// template with the small budget, while the same text fits the
// structured template's larger one.
func TestFitRequest_OverBudget(t *testing.T) {
	// 100 sentences of 39 ASCII characters: 3900 runes total.
	text := strings.TrimSpace(strings.Repeat("All work and no play makes a dull day. ", 100))

	res := FitRequest(TemplateSimple, text)
	if !res.Truncated {
		t.Fatal("text over budget should be marked truncated")
	}
	if n := utf8.RuneCountInString(res.Text); n == 0 || n > defaultRequestBudget {
		t.Errorf("truncated text has %d runes, want 1..%d", n, defaultRequestBudget)
	}
	if !strings.HasPrefix(res.Text, "All work and no play") {
		t.Errorf("truncation should keep the opening of the request, got %q...", res.Text[:40])
	}

	res = FitRequest(TemplateStructured, text)
	if res.Truncated {
		t.Error("3900 runes should fit the structured budget untouched")
	}
}

// TestFitRequest_NoSplitPoints tests the hard cut for text with no
// natural boundaries at all.
func TestFitRequest_NoSplitPoints(t *testing.T) {
	text := strings.Repeat("x", defaultRequestBudget+500)

	res := FitRequest(TemplateSimple, text)
	if !res.Truncated {
		t.Fatal("oversized text should be marked truncated")
	}
	if n := utf8.RuneCountInString(res.Text); n == 0 || n > defaultRequestBudget {
		t.Errorf("hard cut produced %d runes, want 1..%d", n, defaultRequestBudget)
	}
	if strings.ContainsRune(res.Text, ' ') {
		t.Error("hard cut should not invent content")
	}
}
