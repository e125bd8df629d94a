// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that reach
// URL paths, log lines, and cache keys. Using these validators prevents
// injection attacks (log injection, path traversal) and rejects junk
// before it costs an LLM call.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Requirement text bounds. Shorter inputs carry too little signal to
// analyze; longer ones are rejected before any strategy runs.
const (
	MinRequirementChars = 10
	MaxRequirementChars = 5000
)

// requestIDPattern matches lowercase UUID v4: the version nibble is 4
// and the variant nibble is one of 8, 9, a, b.
var requestIDPattern = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ValidateRequestID validates a request identifier before it is used
// in a URL path, a log line, or a stream registry lookup.
//
// Valid IDs are UUID v4 in canonical lowercase form.
//
// Example:
//
//	if err := validation.ValidateRequestID(id); err != nil {
//	    return fmt.Errorf("invalid request id: %w", err)
//	}
func ValidateRequestID(id string) error {
	if id == "" {
		return fmt.Errorf("request id cannot be empty")
	}

	if !requestIDPattern.MatchString(id) {
		return fmt.Errorf("invalid request id format: %q (must be a UUID v4)", id)
	}

	return nil
}

// SanitizeRequestID normalizes and validates a request identifier.
// Returns the lowercase ID if valid, or an error if invalid.
//
// Use this when the ID comes from a URL path or user input where case
// and surrounding whitespace vary:
//
//	safeID, err := validation.SanitizeRequestID(c.Param("request_id"))
//	if err != nil {
//	    return err
//	}
func SanitizeRequestID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateRequestID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateRequirementText checks free-form requirement text bounds.
// The bounds apply to the trimmed text so padding never changes the
// verdict. Used client-side to fail fast before a network round trip;
// the API enforces the same limits.
func ValidateRequirementText(text string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinRequirementChars {
		return fmt.Errorf("requirement text too short: %d chars (minimum %d)",
			len(trimmed), MinRequirementChars)
	}
	if len(trimmed) > MaxRequirementChars {
		return fmt.Errorf("requirement text too long: %d chars (maximum %d)",
			len(trimmed), MaxRequirementChars)
	}
	return nil
}
