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
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
)

// Guided is the second rung: instead of one big JSON ask, three small
// questions a weak model can answer: a one-word classification, a
// pipe-delimited task list, and a one-sentence summary. Any step
// failing fails the strategy; the answers are cheap enough that partial
// resumption is not worth the bookkeeping.
type Guided struct {
	gen Generator
	lib *prompts.Library
}

// NewGuided builds the guided-generation strategy.
func NewGuided(gen Generator, lib *prompts.Library) *Guided {
	return &Guided{gen: gen, lib: lib}
}

// Name implements Strategy.
func (g *Guided) Name() string { return StrategyGuided }

// Analyze implements Strategy.
func (g *Guided) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	if g.gen.Get(ctx, "") == nil {
		return nil, nil
	}

	text := req.NormalizedText()
	fit := prompts.FitRequest(prompts.TemplateGuidedClassify, text)

	// Step 1: classify.
	classifyPrompt, err := g.lib.Render(prompts.TemplateGuidedClassify, prompts.Data{Request: fit.Text})
	if err != nil {
		return nil, fmt.Errorf("rendering classify prompt: %w", err)
	}
	classifyResp, providerName, err := g.generate(ctx, classifyPrompt, 0.1, 20)
	if err != nil {
		return nil, fmt.Errorf("guided classification: %w", err)
	}
	intent := datatypes.CoerceIntentCategory(classifyResp)

	// Step 2: tasks.
	tasksPrompt, err := g.lib.Render(prompts.TemplateGuidedTasks, prompts.Data{
		Request: fit.Text,
		Intent:  string(intent),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering tasks prompt: %w", err)
	}
	tasksResp, _, err := g.generate(ctx, tasksPrompt, 0.3, 200)
	if err != nil {
		return nil, fmt.Errorf("guided task generation: %w", err)
	}
	tasks := parseTaskList(tasksResp, text)

	// Step 3: summary.
	summaryPrompt, err := g.lib.Render(prompts.TemplateGuidedSummary, prompts.Data{Request: fit.Text})
	if err != nil {
		return nil, fmt.Errorf("rendering summary prompt: %w", err)
	}
	summaryResp, _, err := g.generate(ctx, summaryPrompt, 0.2, 50)
	if err != nil {
		return nil, fmt.Errorf("guided summary: %w", err)
	}
	summary := strings.TrimSpace(summaryResp)
	if summary == "" {
		summary = humanizeCategory(intent) + " request"
	}

	result := &datatypes.IntentAnalysisResult{
		IntentType: intent,
		Confidence: 0.7,
		Summary:    summary,
		Tasks:      tasks,
		Metadata:   map[string]any{datatypes.MetaStrategy: StrategyGuided},
	}
	result.SetMeta(datatypes.MetaProvider, providerName)
	if fit.Truncated {
		result.SetMeta(datatypes.MetaTruncated, true)
	}
	return result, nil
}

// generate runs one failover generation with the given sampling knobs.
func (g *Guided) generate(ctx context.Context, prompt string, temp float32, maxTokens int) (string, string, error) {
	params := providers.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}
	text, name, err := g.gen.Generate(ctx, "", prompt, params)
	if err != nil && ctx.Err() != nil {
		return "", "", ctx.Err()
	}
	return text, name, err
}

// parseTaskList parses "Title | Type | Hours | Priority" lines. Lines
// without enough fields or without a title are skipped; an empty parse
// falls back to the generic task so the strategy still yields a
// breakdown.
func parseTaskList(response, originalText string) []datatypes.Task {
	var tasks []datatypes.Task

	for i, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}
		title := parts[0]
		if title == "" {
			continue
		}

		hours := 8.0
		if n, err := strconv.Atoi(parts[2]); err == nil && n > 0 {
			hours = float64(n)
		}

		tasks = append(tasks, datatypes.Task{
			ID:             fmt.Sprintf("task_%d", i+1),
			Title:          title,
			Description:    "Task: " + title,
			Type:           datatypes.CoerceTaskType(parts[1]),
			Priority:       datatypes.CoerceTaskPriority(parts[3]),
			Complexity:     datatypes.ComplexityModerate,
			EstimatedHours: hours,
			Tags:           []string{strings.ToLower(parts[1])},
		})
	}

	if len(tasks) == 0 {
		tasks = append(tasks, DefaultTask(originalText))
	}
	return tasks
}
