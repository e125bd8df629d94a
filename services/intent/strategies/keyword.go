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
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// Keyword is the last rung. A handful of substring checks and one
// generic task: the answer is crude but it is always an answer, which
// is the whole point of having a floor under the chain.
type Keyword struct{}

// NewKeyword builds the keyword strategy.
func NewKeyword() *Keyword { return &Keyword{} }

// Name implements Strategy.
func (k *Keyword) Name() string { return StrategyKeyword }

// Analyze implements Strategy. It cannot fail.
func (k *Keyword) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	text := req.NormalizedText()
	lower := strings.ToLower(text)

	intent := datatypes.IntentUnknown
	switch {
	case containsAny(lower, "create", "build", "need"):
		intent = datatypes.IntentFeatureRequest
	case containsAny(lower, "fix", "bug", "error"):
		intent = datatypes.IntentBugFix
	case strings.Contains(lower, "test"):
		intent = datatypes.IntentTesting
	}

	taskType := datatypes.TaskTypeBackend
	if strings.Contains(lower, "api") {
		taskType = datatypes.TaskTypeAPI
	}

	task := datatypes.Task{
		ID:                 uuid.New().String(),
		Title:              "Implement requested functionality",
		Description:        text,
		Type:               taskType,
		Priority:           datatypes.PriorityMedium,
		Complexity:         datatypes.ComplexityModerate,
		EstimatedHours:     8.0,
		Tags:               []string{"general"},
		AcceptanceCriteria: []string{"Functionality implemented as requested"},
	}

	return &datatypes.IntentAnalysisResult{
		IntentType: intent,
		Confidence: 0.4,
		Summary:    "Basic analysis: " + string(intent),
		Tasks:      []datatypes.Task{task},
		Metadata:   map[string]any{datatypes.MetaStrategy: StrategyKeyword},
	}, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
