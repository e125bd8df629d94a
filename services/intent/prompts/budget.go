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
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Request text budgets in runes, per template. The structured prompt
// already carries a large JSON skeleton and the enum tables, so the
// request itself gets the bigger share; the short prompts bound
// pathological inputs harder.
const (
	structuredRequestBudget = 4000
	defaultRequestBudget    = 2000
)

// budgetSeparators prefers paragraph and sentence boundaries so a
// shortened request still ends on readable text.
var budgetSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// FitResult is the outcome of fitting request text to a template budget.
type FitResult struct {
	// Text is the possibly shortened request text.
	Text string

	// Truncated reports whether anything was cut. Callers surface this
	// in result metadata so consumers know the analysis saw a prefix.
	Truncated bool
}

// RequestBudget returns the rune budget for the named template.
func RequestBudget(templateName string) int {
	if templateName == TemplateStructured {
		return structuredRequestBudget
	}
	return defaultRequestBudget
}

// FitRequest bounds text to the named template's budget.
//
// Splitting prefers natural boundaries and keeps the opening of the
// request, which in practice carries the actionable part. The result
// never exceeds the budget, even for text with no split points at all.
func FitRequest(templateName, text string) FitResult {
	budget := RequestBudget(templateName)
	if utf8.RuneCountInString(text) <= budget {
		return FitResult{Text: text}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(budget),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators(budgetSeparators),
	)

	chunks, err := splitter.SplitText(text)
	if err == nil && len(chunks) > 0 {
		first := strings.TrimSpace(chunks[0])
		if first != "" && utf8.RuneCountInString(first) <= budget {
			return FitResult{Text: first, Truncated: true}
		}
	}

	// No usable split point; hard cut on a rune boundary.
	runes := []rune(text)
	return FitResult{Text: strings.TrimSpace(string(runes[:budget])), Truncated: true}
}
