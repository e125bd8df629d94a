// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Constants for default connection settings
const (
	DefaultIntentPort = 12310
	DefaultIntentHost = "localhost"
)

// apiTimeout bounds every plain request the CLI makes. Analyses can
// legitimately run for a minute on a cold local model, so this stays
// generous. Streaming requests manage their own lifetime instead.
const apiTimeout = 120 * time.Second

var apiClient = &http.Client{Timeout: apiTimeout}

func getIntentBaseURL() string {
	// 1. Priority: Environment Variable (Used by Tests & Docker overrides)
	if url := os.Getenv("ALEUTIAN_INTENT_URL"); url != "" {
		return url
	}
	// 2. Default: Standard Host/Port
	return fmt.Sprintf("http://%s:%d", DefaultIntentHost, DefaultIntentPort)
}

// resolveServerURL applies the --server flag over the environment and
// default resolution, with any trailing slash removed so callers can
// join paths with a plain "/".
func resolveServerURL() string {
	base := serverURL
	if base == "" {
		base = getIntentBaseURL()
	}
	return strings.TrimRight(base, "/")
}

// getJSON performs a GET and returns the body and status code. Transport
// failures come back as errors; HTTP-level errors are left to the caller
// because several endpoints put useful JSON in non-200 responses.
func getJSON(url string) ([]byte, int, error) {
	resp, err := apiClient.Get(url)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// postJSON marshals payload and performs a POST, with the same error
// split as getJSON.
func postJSON(url string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := apiClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// serverError extracts the {"error": "..."} message the service wraps
// failures in, falling back to the raw body.
func serverError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// parseKeyValues turns repeated key=value flag values into a map.
// Values may contain '=' signs; only the first one splits.
func parseKeyValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}
