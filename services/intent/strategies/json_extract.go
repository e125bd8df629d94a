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
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first valid JSON object out of raw model output.
//
// # Description
//
// Models asked for "ONLY valid JSON" still wrap their answer in markdown
// fences, preambles ("Here is my analysis:") and postambles. This
// scanner tolerates all of that: fenced blocks are preferred when
// present, then the text is searched for balanced top-level objects.
// Brace matching is string- and escape-aware, so braces inside string
// values never confuse the depth count. Each balanced candidate is
// checked with json.Valid; the first valid one wins, which also handles
// responses containing several objects.
//
// # Inputs
//
//   - s: Raw model output.
//
// # Outputs
//
//   - []byte: The first valid JSON object, ready for json.Unmarshal.
//   - error: Non-nil when the text contains no valid object at all.
func ExtractJSON(s string) ([]byte, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	if body, ok := fencedBlock(trimmed); ok {
		if out, err := firstBalancedObject(body); err == nil {
			return out, nil
		}
	}

	return firstBalancedObject(trimmed)
}

// fencedBlock returns the contents of the first ``` fence, with an
// optional language tag line ("json", "JSON") dropped.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]

	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// firstBalancedObject scans for balanced {...} candidates and returns
// the first one that is valid JSON.
func firstBalancedObject(s string) ([]byte, error) {
	for start := strings.IndexByte(s, '{'); start >= 0; start = nextBrace(s, start) {
		if end, ok := matchBrace(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return []byte(candidate), nil
			}
		}
	}
	return nil, fmt.Errorf("no valid JSON object in response")
}

// nextBrace finds the next '{' strictly after position after, so invalid
// or unbalanced candidates still get their nested objects tried.
func nextBrace(s string, after int) int {
	i := strings.IndexByte(s[after+1:], '{')
	if i < 0 {
		return -1
	}
	return after + 1 + i
}

// matchBrace returns the index of the brace closing the one at start.
// Bytes inside string literals, including escaped quotes, are skipped.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
