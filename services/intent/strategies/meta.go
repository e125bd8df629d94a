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
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// domainPatterns maps problem domains to indicator keywords. A slice,
// not a map: on score ties the earlier entry wins, so table order is
// part of the behavior. Matching is substring-based on lowered text.
var domainPatterns = []struct {
	domain   string
	keywords []string
}{
	{"api_development", []string{"api", "rest", "graphql", "endpoint", "route", "http", "request", "response"}},
	{"data_processing", []string{"data", "etl", "pipeline", "transform", "aggregate", "analytics"}},
	{"ui_development", []string{"ui", "frontend", "component", "react", "vue", "angular", "interface"}},
	{"infrastructure", []string{"deploy", "kubernetes", "docker", "aws", "azure", "terraform", "ci/cd"}},
	{"machine_learning", []string{"ml", "model", "train", "predict", "neural", "ai", "dataset"}},
	{"security", []string{"security", "auth", "encrypt", "vulnerability", "penetration", "ssl"}},
	{"database", []string{"database", "sql", "query", "schema", "migration", "index", "performance"}},
}

// DetectDomain classifies the problem domain of a requirement.
//
// Each domain scores one point per keyword found in the lowered text;
// the highest score wins and no hits at all yields "general". The
// result feeds prompt context and the analyzing-phase thought detail.
func DetectDomain(text string) string {
	lower := strings.ToLower(text)

	best := "general"
	bestScore := 0
	for _, p := range domainPatterns {
		score := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = p.domain
			bestScore = score
		}
	}
	return best
}

var quotedRE = regexp.MustCompile(`"([^"]*)"`)

// ExtractEntities pulls notable terms from a requirement: double-quoted
// spans first, then capitalized words longer than two runes. Duplicates
// are dropped, keeping first-seen order.
func ExtractEntities(text string) []string {
	var entities []string
	seen := make(map[string]struct{})
	add := func(e string) {
		if e == "" {
			return
		}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		entities = append(entities, e)
	}

	for _, m := range quotedRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	for _, word := range strings.Fields(text) {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(r) && utf8.RuneCountInString(word) > 2 {
			add(word)
		}
	}

	return entities
}
