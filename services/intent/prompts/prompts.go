// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompts owns every piece of text the service sends to an LLM.
//
// Templates ship embedded in the binary, so a bare deployment needs no
// filesystem setup. Operators can override individual templates by
// pointing the library at a directory of .tmpl files, and edits to that
// directory are picked up live without a restart. A template that fails
// to parse never replaces a working one.
//
// Enum vocabularies (intent categories, task types, priorities,
// complexities) are injected through template functions backed by the
// datatypes package, so the wording a model sees and the values the
// response parsers accept cannot drift apart.
package prompts

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// Template names understood by Render. Each corresponds to one embedded
// .tmpl file; an override directory may replace any of them by base name.
const (
	TemplateStructured     = "structured"
	TemplateGuidedClassify = "guided_classify"
	TemplateGuidedTasks    = "guided_tasks"
	TemplateGuidedSummary  = "guided_summary"
	TemplateSimple         = "simple"
)

// reloadDebounce batches the burst of fsnotify events most editors emit
// for a single save into one reload.
const reloadDebounce = 100 * time.Millisecond

//go:embed templates/*.tmpl
var embedded embed.FS

// Data carries the per-request values a template may reference. Not every
// template uses every field; unused fields render nothing.
type Data struct {
	// Request is the raw (possibly truncated) requirement text.
	Request string

	// Domain is the detected problem domain, e.g. "api_development".
	Domain string

	// Entities are notable terms extracted from the request.
	Entities []string

	// Intent is a previously classified category, used by templates that
	// build on an earlier step's answer.
	Intent string
}

// categoryHints gives the one-line gloss shown next to each category in
// the classification prompt.
var categoryHints = map[datatypes.IntentCategory]string{
	datatypes.IntentFeatureRequest: "New functionality",
	datatypes.IntentBugFix:         "Fixing errors or issues",
	datatypes.IntentRefactoring:    "Code improvement",
	datatypes.IntentDocumentation:  "Documentation tasks",
	datatypes.IntentTesting:        "Test creation",
	datatypes.IntentDeployment:     "Deployment tasks",
	datatypes.IntentConfiguration:  "Config changes",
	datatypes.IntentResearch:       "Investigation tasks",
	datatypes.IntentUnknown:        "Can't determine",
}

// enumNames converts a slice of string-typed enum values to plain strings
// for use inside templates.
func enumNames[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"jsonList": func(vals []string) string {
			if len(vals) == 0 {
				return "[]"
			}
			b, err := json.Marshal(vals)
			if err != nil {
				return "[]"
			}
			return string(b)
		},
		"intentCategories": func() []string { return enumNames(datatypes.AllIntentCategories()) },
		"taskTypes":        func() []string { return enumNames(datatypes.AllTaskTypes()) },
		"taskPriorities":   func() []string { return enumNames(datatypes.AllTaskPriorities()) },
		"taskComplexities": func() []string { return enumNames(datatypes.AllTaskComplexities()) },
		"categoryHint": func(name string) string {
			return categoryHints[datatypes.IntentCategory(name)]
		},
	}
}

// Library holds the parsed prompt templates and serves renders.
//
// # Description
//
// On construction the embedded templates are parsed (a failure there is a
// packaging bug and aborts startup), then any .tmpl files in the override
// directory are layered on top. Watch starts a background goroutine that
// re-parses override files as they change; a file that no longer parses
// is logged and skipped, leaving the previous version in place.
//
// # Thread Safety
//
// Safe for concurrent use. Render takes a read lock; reloads swap
// individual entries under the write lock.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*template.Template

	overrideDir string

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	watching bool
}

// NewLibrary parses the embedded templates and layers overrideDir on top.
//
// # Inputs
//
//   - overrideDir: Directory of .tmpl files that replace embedded
//     templates by base name. Empty disables overrides.
//
// # Outputs
//
//   - *Library: Ready to render.
//   - error: Non-nil only if an embedded template is broken or the
//     override directory exists but cannot be read.
func NewLibrary(overrideDir string) (*Library, error) {
	l := &Library{
		templates:   make(map[string]*template.Template),
		overrideDir: overrideDir,
		done:        make(chan struct{}),
	}

	entries, err := embedded.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("reading embedded templates: %w", err)
	}
	for _, entry := range entries {
		raw, err := embedded.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded template %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing embedded template %s: %w", entry.Name(), err)
		}
		l.templates[name] = tmpl
	}

	if overrideDir != "" {
		if err := l.loadOverrides(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// loadOverrides parses every .tmpl file in the override directory. A
// missing directory is fine; a file that fails to parse is logged and the
// embedded version stays.
func (l *Library) loadOverrides() error {
	entries, err := os.ReadDir(l.overrideDir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Prompt override directory does not exist, using embedded templates",
				"dir", l.overrideDir)
			return nil
		}
		return fmt.Errorf("reading prompt override directory %s: %w", l.overrideDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".tmpl" {
			continue
		}
		l.loadOverrideFile(filepath.Join(l.overrideDir, entry.Name()))
	}
	return nil
}

// loadOverrideFile parses a single override file and swaps it into the
// template map. Failures keep the previous template.
func (l *Library) loadOverrideFile(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read prompt override, keeping previous template",
			"path", path, "error", err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), ".tmpl")
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(raw))
	if err != nil {
		slog.Warn("Prompt override failed to parse, keeping previous template",
			"path", path, "error", err)
		return
	}

	l.mu.Lock()
	l.templates[name] = tmpl
	l.mu.Unlock()

	slog.Info("Loaded prompt template override", "name", name, "path", path)
}

// Render executes the named template with the given data.
func (l *Library) Render(name string, data Data) (string, error) {
	l.mu.RLock()
	tmpl, ok := l.templates[name]
	l.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("no prompt template named %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt template %q: %w", name, err)
	}
	return buf.String(), nil
}

// Names returns the names of all loaded templates in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch starts watching the override directory for changes.
//
// # Description
//
// Events are debounced so a save that produces several fsnotify events
// triggers a single reload. Only .tmpl files are considered; removals
// are ignored so a deleted override keeps serving its last good parse
// until the process restarts.
//
// # Inputs
//
//   - ctx: Cancels watching when done.
//
// # Outputs
//
//   - error: Non-nil if the watcher could not be created or the
//     directory could not be added. No override directory is not an
//     error; Watch is then a no-op.
func (l *Library) Watch(ctx context.Context) error {
	if l.overrideDir == "" {
		return nil
	}

	l.mu.Lock()
	if l.watching {
		l.mu.Unlock()
		return nil
	}
	l.watching = true
	l.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating prompt watcher: %w", err)
	}
	if err := watcher.Add(l.overrideDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching prompt directory %s: %w", l.overrideDir, err)
	}
	l.watcher = watcher

	go l.watchLoop(ctx)

	slog.Info("Watching prompt override directory", "dir", l.overrideDir)
	return nil
}

// watchLoop debounces events and reloads changed files.
func (l *Library) watchLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for path := range pending {
			l.loadOverrideFile(path)
			delete(pending, path)
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".tmpl" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			flush()

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Prompt watcher error", "error", err)
		}
	}
}

// Close stops the watcher. Safe to call multiple times and before Watch.
func (l *Library) Close() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.watcher != nil {
			l.watcher.Close()
			l.watcher = nil
		}
		l.watching = false
	})
}
