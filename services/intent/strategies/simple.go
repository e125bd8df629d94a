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
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
)

var digitsRE = regexp.MustCompile(`\d+`)

// Simple is the third rung: a single free-form question whose numbered
// answers are scraped line by line. It produces exactly one task, so it
// trades breakdown quality for a much higher chance of parsing at all.
type Simple struct {
	gen Generator
	lib *prompts.Library
}

// NewSimple builds the simple-parse strategy.
func NewSimple(gen Generator, lib *prompts.Library) *Simple {
	return &Simple{gen: gen, lib: lib}
}

// Name implements Strategy.
func (s *Simple) Name() string { return StrategySimple }

// Analyze implements Strategy.
func (s *Simple) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	if s.gen.Get(ctx, "") == nil {
		return nil, nil
	}

	text := req.NormalizedText()
	fit := prompts.FitRequest(prompts.TemplateSimple, text)

	prompt, err := s.lib.Render(prompts.TemplateSimple, prompts.Data{Request: fit.Text})
	if err != nil {
		return nil, fmt.Errorf("rendering simple prompt: %w", err)
	}

	temp := float32(0.3)
	maxTokens := 100
	params := providers.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}

	response, providerName, err := s.gen.Generate(ctx, "", prompt, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("simple generation: %w", err)
	}

	result := parseSimpleResponse(response, text)
	result.SetMeta(datatypes.MetaProvider, providerName)
	if fit.Truncated {
		result.SetMeta(datatypes.MetaTruncated, true)
	}
	return result, nil
}

// parseSimpleResponse scrapes the numbered answers. Matching is
// case-insensitive but the extracted values keep the model's original
// casing.
func parseSimpleResponse(response, originalText string) *datatypes.IntentAnalysisResult {
	intent := datatypes.IntentUnknown
	mainTask := "Implement request"
	hours := 8.0
	priority := datatypes.PriorityMedium

	for _, line := range strings.Split(response, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "type:"):
			intent = datatypes.CoerceIntentCategory(afterColon(line))
		case strings.Contains(lower, "main task:"):
			if v := strings.TrimSpace(afterColon(line)); v != "" {
				mainTask = v
			}
		case strings.Contains(lower, "hours:"):
			if m := digitsRE.FindString(afterColon(line)); m != "" {
				if n, err := strconv.Atoi(m); err == nil && n > 0 {
					hours = float64(n)
				}
			}
		case strings.Contains(lower, "priority:"):
			priority = datatypes.CoerceTaskPriority(afterColon(line))
		}
	}

	task := datatypes.Task{
		ID:             uuid.New().String(),
		Title:          truncateRunes(mainTask, 50),
		Description:    originalText,
		Type:           datatypes.TaskTypeAPI,
		Priority:       priority,
		Complexity:     datatypes.ComplexityModerate,
		EstimatedHours: hours,
	}

	return &datatypes.IntentAnalysisResult{
		IntentType: intent,
		Confidence: 0.6,
		Summary:    mainTask,
		Tasks:      []datatypes.Task{task},
		Metadata:   map[string]any{datatypes.MetaStrategy: StrategySimple},
	}
}

// afterColon returns everything after the first colon, or "" when the
// line has none.
func afterColon(line string) string {
	if _, rest, ok := strings.Cut(line, ":"); ok {
		return rest
	}
	return ""
}
