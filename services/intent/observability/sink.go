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
	"log/slog"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// AnalysisSink writes one time-series point per completed analysis to
// InfluxDB, for dashboards over intent mix, strategy usage and latency.
//
// # Description
//
// The sink is strictly best-effort: a nil sink is valid and does
// nothing, and write failures are logged and swallowed so analytics
// can never fail a request.
//
// Thread Safety: Safe for concurrent use; the blocking write API
// serializes internally.
type AnalysisSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

// NewSinkFromEnv builds a sink from INFLUXDB_* environment variables.
//
// Returns nil when INFLUXDB_URL or INFLUXDB_TOKEN is unset, which
// disables analysis-record export entirely. INFLUXDB_ORG defaults to
// "aleutian" and INFLUXDB_BUCKET to "intent-analytics".
func NewSinkFromEnv() *AnalysisSink {
	url := os.Getenv("INFLUXDB_URL")
	token := os.Getenv("INFLUXDB_TOKEN")
	if url == "" || token == "" {
		return nil
	}

	org := getEnvOr("INFLUXDB_ORG", "aleutian")
	bucket := getEnvOr("INFLUXDB_BUCKET", "intent-analytics")

	client := influxdb2.NewClient(url, token)
	slog.Info("Analysis sink enabled", "url", url, "org", org, "bucket", bucket)

	return &AnalysisSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		bucket:   bucket,
		org:      org,
	}
}

// Record writes one point for a completed analysis. Nil-safe; failures
// are logged and swallowed.
func (s *AnalysisSink) Record(ctx context.Context, result *datatypes.IntentAnalysisResult) {
	if s == nil || result == nil {
		return
	}

	p := influxdb2.NewPointWithMeasurement("intent_analyses").
		AddTag("intent", string(result.IntentType)).
		AddTag("strategy", result.Strategy()).
		AddField("duration_ms", metaInt64(result.Metadata, datatypes.MetaDurationMS)).
		AddField("confidence", result.Confidence).
		AddField("task_count", len(result.Tasks)).
		AddField("cached", metaBool(result.Metadata, datatypes.MetaCached)).
		SetTime(time.Now())

	if provider, ok := result.Metadata[datatypes.MetaProvider].(string); ok && provider != "" {
		p.AddTag("provider", provider)
	}

	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		slog.Warn("Failed to record analysis point", "error", err)
	}
}

// Close releases the underlying InfluxDB client. Nil-safe.
func (s *AnalysisSink) Close() {
	if s == nil {
		return
	}
	s.client.Close()
}

// metaInt64 reads an integer metadata value that may have gone through
// a JSON round-trip, which turns numbers into float64.
func metaInt64(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// metaBool reads a boolean metadata value, defaulting to false.
func metaBool(meta map[string]any, key string) bool {
	v, ok := meta[key].(bool)
	return ok && v
}
