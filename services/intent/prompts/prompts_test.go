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
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// TestNewLibrary_Embedded tests that all shipped templates parse and load.
func TestNewLibrary_Embedded(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	want := []string{
		TemplateGuidedClassify,
		TemplateGuidedSummary,
		TemplateGuidedTasks,
		TemplateSimple,
		TemplateStructured,
	}
	if got := lib.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

// TestRender_Structured tests the main JSON prompt: request context is
// interpolated and the full enum vocabulary appears verbatim.
func TestRender_Structured(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateStructured, Data{
		Request:  "Fix the login crash",
		Domain:   "api_development",
		Entities: []string{"login", "password"},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, fragment := range []string{
		`Request: "Fix the login crash"`,
		"Domain: api_development",
		"Entities: login, password",
		"IMPORTANT: Your response must be ONLY valid JSON, nothing else.",
		`"domain": "api_development"`,
		`"entities": ["login","password"]`,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("structured prompt missing %q", fragment)
		}
	}

	// The enum tables must carry every canonical value, so the model is
	// never invited to answer outside what the parsers accept.
	for _, c := range datatypes.AllIntentCategories() {
		if !strings.Contains(out, string(c)) {
			t.Errorf("structured prompt missing intent category %q", c)
		}
	}
	for _, tt := range datatypes.AllTaskTypes() {
		if !strings.Contains(out, string(tt)) {
			t.Errorf("structured prompt missing task type %q", tt)
		}
	}
	for _, p := range datatypes.AllTaskPriorities() {
		if !strings.Contains(out, string(p)) {
			t.Errorf("structured prompt missing priority %q", p)
		}
	}
	for _, c := range datatypes.AllTaskComplexities() {
		if !strings.Contains(out, string(c)) {
			t.Errorf("structured prompt missing complexity %q", c)
		}
	}
}

// TestRender_Structured_NoEntities tests that an empty entity list
// renders as a valid empty JSON array, not null.
func TestRender_Structured_NoEntities(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateStructured, Data{Request: "test", Domain: "general"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, `"entities": []`) {
		t.Error("empty entity list should render as []")
	}
}

// TestRender_GuidedClassify tests the category menu and its glosses.
func TestRender_GuidedClassify(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateGuidedClassify, Data{Request: "Add dark mode"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(out, `Request: "Add dark mode"`) {
		t.Error("classify prompt missing the request")
	}
	if !strings.Contains(out, "Answer with just the category name:") {
		t.Error("classify prompt missing the answer instruction")
	}
	for _, fragment := range []string{
		"- feature_request: New functionality",
		"- bug_fix: Fixing errors or issues",
		"- unknown: Can't determine",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("classify prompt missing %q", fragment)
		}
	}
	for _, c := range datatypes.AllIntentCategories() {
		if !strings.Contains(out, "- "+string(c)+": ") {
			t.Errorf("classify prompt missing category line for %q", c)
		}
	}
}

// TestRender_GuidedTasks tests the pipe-format task prompt.
func TestRender_GuidedTasks(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateGuidedTasks, Data{
		Request: "Build a REST API for user management",
		Intent:  "feature_request",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(out, "Create tasks for this feature_request request:") {
		t.Error("tasks prompt missing intent interpolation")
	}
	if !strings.Contains(out, "Format: Title | Type | Hours | Priority") {
		t.Error("tasks prompt missing the pipe format line the parser depends on")
	}
}

// TestRender_ShortPrompts tests the summary and simple templates.
func TestRender_ShortPrompts(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateGuidedSummary, Data{Request: "Ship it"})
	if err != nil {
		t.Fatalf("Render summary failed: %v", err)
	}
	if !strings.Contains(out, "Summarize this request in one sentence:") ||
		!strings.Contains(out, "Summary:") {
		t.Error("summary prompt missing expected instructions")
	}

	out, err = lib.Render(TemplateSimple, Data{Request: "Ship it"})
	if err != nil {
		t.Fatalf("Render simple failed: %v", err)
	}
	for _, fragment := range []string{
		`What kind of software task is this: "Ship it"`,
		"1. Type: (feature/bug/refactor/docs/test/deploy)",
		"3. Hours needed: (number)",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("simple prompt missing %q", fragment)
		}
	}
}

// TestRender_UnknownTemplate tests the error path for a bad name.
func TestRender_UnknownTemplate(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	_, err = lib.Render("nope", Data{})
	if err == nil {
		t.Fatal("Render of unknown template should fail")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error should name the missing template, got: %v", err)
	}
}

// TestNewLibrary_OverrideDir tests that a .tmpl file in the override
// directory replaces the embedded template of the same name, and only
// that one.
func TestNewLibrary_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "CUSTOM PROMPT: {{.Request}}"
	if err := os.WriteFile(filepath.Join(dir, "simple.tmpl"), []byte(override), 0o644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateSimple, Data{Request: "hello"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "CUSTOM PROMPT: hello" {
		t.Errorf("override not applied, got %q", out)
	}

	out, err = lib.Render(TemplateStructured, Data{Request: "hello", Domain: "general"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "You are a software architect.") {
		t.Error("non-overridden template should stay embedded")
	}
}

// TestNewLibrary_OverrideParseError tests that a broken override is
// skipped in favor of the embedded template.
func TestNewLibrary_OverrideParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "simple.tmpl"), []byte("{{.Broken"), 0o644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary should tolerate a broken override, got: %v", err)
	}
	defer lib.Close()

	out, err := lib.Render(TemplateSimple, Data{Request: "hello"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "What kind of software task is this") {
		t.Error("broken override should leave the embedded template in place")
	}
}

// TestNewLibrary_MissingOverrideDir tests that a nonexistent override
// directory is not an error.
func TestNewLibrary_MissingOverrideDir(t *testing.T) {
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	if _, err := lib.Render(TemplateSimple, Data{Request: "x"}); err != nil {
		t.Errorf("embedded templates should still render: %v", err)
	}
}

// TestWatch_ReloadsChangedTemplate tests live reload: a new override is
// picked up, and a later broken edit keeps the last good version.
func TestWatch_ReloadsChangedTemplate(t *testing.T) {
	dir := t.TempDir()

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	defer lib.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := lib.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	path := filepath.Join(dir, "simple.tmpl")
	if err := os.WriteFile(path, []byte("LIVE: {{.Request}}"), 0o644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	if !eventually(t, 2*time.Second, func() bool {
		out, err := lib.Render(TemplateSimple, Data{Request: "x"})
		return err == nil && out == "LIVE: x"
	}) {
		t.Fatal("override was not picked up by the watcher")
	}

	// A broken edit must not replace the working template.
	if err := os.WriteFile(path, []byte("{{.Broken"), 0o644); err != nil {
		t.Fatalf("writing broken override: %v", err)
	}
	time.Sleep(4 * reloadDebounce)

	out, err := lib.Render(TemplateSimple, Data{Request: "x"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "LIVE: x" {
		t.Errorf("broken edit replaced the template, got %q", out)
	}
}

// TestClose_Idempotent tests that Close is safe to call repeatedly and
// before Watch.
func TestClose_Idempotent(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	lib.Close()
	lib.Close()
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}
