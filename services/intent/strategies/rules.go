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
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

//go:embed rules.yaml
var embeddedRules []byte

const (
	// defaultKeywordWeight is the per-hit score for entries that do not
	// set their own weight.
	defaultKeywordWeight = 2

	// maxRulesFileSize caps override files so a stray path cannot pull
	// gigabytes into memory.
	maxRulesFileSize = 1 << 20
)

// taskPhraseREs pull two-to-four word action phrases out of the request
// text. Group 1 is the phrase.
var taskPhraseREs = []*regexp.Regexp{
	regexp.MustCompile(`(?:need to|want to|should|must)\s+(\w+\s+\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?:implement|create|build|develop)\s+(\w+\s+\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?:with|including|such as)\s+(\w+\s+\w+(?:\s+\w+)?)`),
}

// actionPhraseRE feeds the summary line.
var actionPhraseRE = regexp.MustCompile(`\b(?:create|build|implement|fix|add|improve)\s+(\w+(?:\s+\w+)?)`)

// taskTypeHints map phrase vocabulary to a task type. First hit wins.
var taskTypeHints = []struct {
	taskType datatypes.TaskType
	words    []string
}{
	{datatypes.TaskTypeFrontend, []string{"ui", "interface", "frontend", "react", "vue"}},
	{datatypes.TaskTypeAPI, []string{"api", "endpoint", "rest", "graphql"}},
	{datatypes.TaskTypeDatabase, []string{"database", "sql", "mongo", "redis"}},
	{datatypes.TaskTypeTesting, []string{"test", "testing", "spec"}},
	{datatypes.TaskTypeInfrastructure, []string{"deploy", "docker", "kubernetes"}},
}

type ruleEntry struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
	Weight   int      `yaml:"weight"`
}

type ruleTable struct {
	Intents []ruleEntry `yaml:"intents"`
}

// Rules is the fourth rung: no model at all, just keyword scoring and
// regex phrase extraction. It never declines and never errors, so with
// the keyword rung behind it the chain always terminates.
//
// # Thread Safety
//
// The rule table is immutable after construction; Analyze is safe for
// concurrent use.
type Rules struct {
	table ruleTable
}

// NewRules builds the rule-based strategy. The embedded table is always
// parsed first so a broken binary fails fast; overridePath, when set,
// replaces it if the file loads and validates, otherwise the embedded
// table stays in effect with a warning.
func NewRules(overridePath string) (*Rules, error) {
	table, err := parseRules(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rule table is invalid: %w", err)
	}

	if overridePath != "" {
		external, err := loadRulesFile(overridePath)
		if err != nil {
			slog.Warn("Failed to load rule table override, keeping embedded rules",
				"path", overridePath,
				"error", err)
		} else {
			table = external
			slog.Info("Loaded rule table override",
				"path", overridePath,
				"intents", len(table.Intents))
		}
	}

	return &Rules{table: table}, nil
}

// Name implements Strategy.
func (r *Rules) Name() string { return StrategyRules }

// Analyze implements Strategy. It always returns a result.
func (r *Rules) Analyze(ctx context.Context, req *datatypes.AnalyzeRequest) (*datatypes.IntentAnalysisResult, error) {
	text := req.NormalizedText()
	lower := strings.ToLower(text)

	scores := make(map[string]int)
	best := datatypes.IntentUnknown
	bestScore := 0
	for _, entry := range r.table.Intents {
		score := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				score += entry.Weight
			}
		}
		if score == 0 {
			continue
		}
		scores[entry.Intent] = score
		if score > bestScore {
			best = datatypes.IntentCategory(entry.Intent)
			bestScore = score
		}
	}

	confidence := 0.3
	if bestScore > 0 {
		confidence = math.Min(float64(bestScore)/10, 0.9)
	}

	return &datatypes.IntentAnalysisResult{
		IntentType: best,
		Confidence: confidence,
		Summary:    summarizeByRules(lower, best),
		Tasks:      extractTasksFromText(text),
		Metadata: map[string]any{
			datatypes.MetaStrategy: StrategyRules,
			"scores":               scores,
		},
	}, nil
}

// extractTasksFromText turns action phrases into up to three tasks,
// falling back to the generic task when no phrase matches.
func extractTasksFromText(text string) []datatypes.Task {
	lower := strings.ToLower(text)

	var phrases []string
	seen := make(map[string]struct{})
	for _, re := range taskPhraseREs {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			phrase := m[1]
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}
			phrases = append(phrases, phrase)
		}
	}
	if len(phrases) > 3 {
		phrases = phrases[:3]
	}

	var tasks []datatypes.Task
	for i, phrase := range phrases {
		tags := strings.Fields(phrase)
		if len(tags) > 2 {
			tags = tags[:2]
		}
		tasks = append(tasks, datatypes.Task{
			ID:             fmt.Sprintf("task_%d", i+1),
			Title:          truncateRunes(titleWords(phrase), 50),
			Description:    "Implement " + phrase,
			Type:           inferTaskType(phrase),
			Priority:       datatypes.PriorityMedium,
			Complexity:     datatypes.ComplexityModerate,
			EstimatedHours: 4.0,
			Tags:           tags,
		})
	}
	if len(tasks) == 0 {
		tasks = append(tasks, DefaultTask(text))
	}
	return tasks
}

// inferTaskType guesses a task type from the phrase vocabulary.
func inferTaskType(phrase string) datatypes.TaskType {
	lower := strings.ToLower(phrase)
	for _, hint := range taskTypeHints {
		for _, word := range hint.words {
			if strings.Contains(lower, word) {
				return hint.taskType
			}
		}
	}
	return datatypes.TaskTypeBackend
}

// summarizeByRules builds "Bug Fix: login crash, error handling" style
// summaries from the first two action phrases.
func summarizeByRules(lower string, intent datatypes.IntentCategory) string {
	var phrases []string
	for _, m := range actionPhraseRE.FindAllStringSubmatch(lower, -1) {
		phrases = append(phrases, m[1])
		if len(phrases) == 2 {
			break
		}
	}
	if len(phrases) > 0 {
		return humanizeCategory(intent) + ": " + strings.Join(phrases, ", ")
	}
	return humanizeCategory(intent) + " request"
}

func loadRulesFile(path string) (ruleTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ruleTable{}, err
	}
	if info.Size() > maxRulesFileSize {
		return ruleTable{}, fmt.Errorf("rule file too large: %d bytes (max %d)", info.Size(), maxRulesFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ruleTable{}, err
	}
	return parseRules(data)
}

// parseRules unmarshals and validates a rule table. Unknown intent
// names are rejected outright rather than silently scoring toward
// "unknown".
func parseRules(data []byte) (ruleTable, error) {
	var table ruleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return ruleTable{}, fmt.Errorf("parsing rule table: %w", err)
	}
	if len(table.Intents) == 0 {
		return ruleTable{}, fmt.Errorf("rule table has no intents")
	}
	for i := range table.Intents {
		entry := &table.Intents[i]
		if !datatypes.IntentCategory(entry.Intent).Valid() {
			return ruleTable{}, fmt.Errorf("rule entry %d: unknown intent %q", i, entry.Intent)
		}
		if len(entry.Keywords) == 0 {
			return ruleTable{}, fmt.Errorf("rule entry %d (%s): no keywords", i, entry.Intent)
		}
		if entry.Weight <= 0 {
			entry.Weight = defaultKeywordWeight
		}
	}
	return table, nil
}
