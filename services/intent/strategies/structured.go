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
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
)

// Structured is the first rung: one prompt asking for the complete
// analysis as a single JSON object matching the canonical schema.
//
// # Description
//
// The prompt embeds the enum vocabulary and a response skeleton, and the
// domain/entity context from meta analysis. Generation runs at low
// temperature through the registry's failover ladder; if the whole
// ladder fails, one parallel hedge across the top candidates is tried
// before conceding to the next strategy. The response is parsed
// leniently: a malformed task skips that task, not the response.
type Structured struct {
	gen Generator
	lib *prompts.Library
}

// NewStructured builds the structured-output strategy.
func NewStructured(gen Generator, lib *prompts.Library) *Structured {
	return &Structured{gen: gen, lib: lib}
}

// Name implements Strategy.
func (s *Structured) Name() string { return StrategyStructured }

// Analyze implements Strategy.
func (s *Structured) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	if s.gen.Get(ctx, "") == nil {
		return nil, nil
	}

	text := req.NormalizedText()
	fit := prompts.FitRequest(prompts.TemplateStructured, text)

	prompt, err := s.lib.Render(prompts.TemplateStructured, prompts.Data{
		Request:  fit.Text,
		Domain:   DetectDomain(text),
		Entities: ExtractEntities(text),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering structured prompt: %w", err)
	}

	temp := float32(0.2)
	maxTokens := 1000
	params := providers.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}

	response, providerName, err := s.gen.Generate(ctx, "", prompt, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Sequential failover is exhausted; hedge once across the top
		// candidates before giving up on the best strategy.
		response, providerName, err = s.gen.Race(ctx, prompt, params, 0)
		if err != nil {
			return nil, fmt.Errorf("structured generation: %w", err)
		}
	}

	result, err := parseStructuredResponse(response)
	if err != nil {
		return nil, fmt.Errorf("structured response: %w", err)
	}

	result.SetMeta(datatypes.MetaProvider, providerName)
	if fit.Truncated {
		result.SetMeta(datatypes.MetaTruncated, true)
	}
	return result, nil
}

// structuredResponse mirrors the JSON schema the prompt asks for. Tasks
// stay raw so one malformed entry costs that task, not the response.
type structuredResponse struct {
	IntentType string            `json:"intent_type"`
	Confidence *flexFloat        `json:"confidence"`
	Summary    string            `json:"summary"`
	Tasks      []json.RawMessage `json:"tasks"`
	Metadata   map[string]any    `json:"metadata"`
}

type structuredTask struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Type               string    `json:"type"`
	Priority           string    `json:"priority"`
	Complexity         string    `json:"complexity"`
	EstimatedHours     flexFloat `json:"estimated_hours"`
	Dependencies       []string  `json:"dependencies"`
	Tags               []string  `json:"tags"`
	AcceptanceCriteria []string  `json:"acceptance_criteria"`
}

// flexFloat accepts both 8 and "8". Models quote numbers often enough
// that rejecting the string form would throw away usable tasks.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// parseStructuredResponse turns raw model output into a result, coercing
// every enum field onto canonical vocabulary.
func parseStructuredResponse(response string) (*datatypes.IntentAnalysisResult, error) {
	raw, err := ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var parsed structuredResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response object: %w", err)
	}

	tasks := make([]datatypes.Task, 0, len(parsed.Tasks))
	for i, rawTask := range parsed.Tasks {
		var st structuredTask
		if err := json.Unmarshal(rawTask, &st); err != nil {
			slog.Warn("Skipping malformed task in structured response", "index", i, "error", err)
			continue
		}

		task := datatypes.Task{
			ID:                 st.ID,
			Title:              st.Title,
			Description:        st.Description,
			Type:               datatypes.TaskType(st.Type),
			Priority:           datatypes.TaskPriority(st.Priority),
			Complexity:         datatypes.TaskComplexity(st.Complexity),
			EstimatedHours:     float64(st.EstimatedHours),
			Dependencies:       st.Dependencies,
			Tags:               st.Tags,
			AcceptanceCriteria: st.AcceptanceCriteria,
		}
		if task.ID == "" {
			task.ID = uuid.New().String()
		}
		if strings.TrimSpace(task.Title) == "" {
			task.Title = "Untitled task"
		}
		if task.EstimatedHours <= 0 {
			task.EstimatedHours = 8.0
		}
		task.Normalize()
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("response contained no usable tasks")
	}

	confidence := 0.5
	if parsed.Confidence != nil {
		confidence = clamp01(float64(*parsed.Confidence))
	}
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		summary = "Analysis complete"
	}

	return &datatypes.IntentAnalysisResult{
		IntentType: datatypes.CoerceIntentCategory(parsed.IntentType),
		Confidence: confidence,
		Summary:    summary,
		Tasks:      tasks,
		Metadata:   parsed.Metadata,
	}, nil
}

// clamp01 bounds model-reported confidence to [0,1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
