// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// TestNewSinkFromEnv_DisabledWithoutConfig tests that missing URL or
// token disables the sink entirely.
func TestNewSinkFromEnv_DisabledWithoutConfig(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "")
	t.Setenv("INFLUXDB_TOKEN", "")
	if s := NewSinkFromEnv(); s != nil {
		t.Error("sink should be nil without configuration")
	}

	t.Setenv("INFLUXDB_URL", "http://localhost:8086")
	if s := NewSinkFromEnv(); s != nil {
		t.Error("URL without token should still disable the sink")
	}
}

// TestSink_NilSafe tests that a disabled sink can be used without
// guards at every call site.
func TestSink_NilSafe(t *testing.T) {
	var s *AnalysisSink
	s.Record(context.Background(), &datatypes.IntentAnalysisResult{})
	s.Record(context.Background(), nil)
	s.Close()
}

// TestSink_RecordSwallowsWriteFailure tests that a failing InfluxDB
// write never propagates to the caller.
func TestSink_RecordSwallowsWriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no room", http.StatusInternalServerError)
	}))
	defer server.Close()

	t.Setenv("INFLUXDB_URL", server.URL)
	t.Setenv("INFLUXDB_TOKEN", "test-token")
	t.Setenv("INFLUXDB_ORG", "")
	t.Setenv("INFLUXDB_BUCKET", "")

	s := NewSinkFromEnv()
	if s == nil {
		t.Fatal("sink should be enabled")
	}
	defer s.Close()

	result := &datatypes.IntentAnalysisResult{
		IntentType: datatypes.IntentFeatureRequest,
		Confidence: 0.9,
		Summary:    "Add an order lookup endpoint",
		Metadata: map[string]any{
			datatypes.MetaStrategy: "structured_output",
			datatypes.MetaProvider: "ollama",
			// JSON round-trips turn int64 into float64; Record must cope.
			datatypes.MetaDurationMS: float64(412),
			datatypes.MetaCached:     true,
		},
	}

	s.Record(context.Background(), result)
}

// TestMetaCoercion tests the numeric and boolean metadata readers
// against raw and JSON-round-tripped values.
func TestMetaCoercion(t *testing.T) {
	meta := map[string]any{
		"as_int64":   int64(41),
		"as_int":     41,
		"as_float64": 41.9,
		"flag":       true,
		"not_bool":   "yes",
	}

	if got := metaInt64(meta, "as_int64"); got != 41 {
		t.Errorf("metaInt64(int64) = %d, want 41", got)
	}
	if got := metaInt64(meta, "as_int"); got != 41 {
		t.Errorf("metaInt64(int) = %d, want 41", got)
	}
	if got := metaInt64(meta, "as_float64"); got != 41 {
		t.Errorf("metaInt64(float64) = %d, want 41", got)
	}
	if got := metaInt64(meta, "missing"); got != 0 {
		t.Errorf("metaInt64(missing) = %d, want 0", got)
	}

	if !metaBool(meta, "flag") {
		t.Error("metaBool(flag) = false, want true")
	}
	if metaBool(meta, "not_bool") {
		t.Error("metaBool(not_bool) = true, want false")
	}
	if metaBool(meta, "missing") {
		t.Error("metaBool(missing) = true, want false")
	}
}
