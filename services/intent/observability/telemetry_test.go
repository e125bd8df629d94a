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
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("ALEUTIAN_ENV", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := DefaultConfig()

	if cfg.ServiceName != "aleutian-intent" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "aleutian-intent")
	}
	if cfg.TraceExporter != "otlp" {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, "otlp")
	}
	if cfg.MetricExporter != "prometheus" {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, "prometheus")
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "localhost:4317")
	}
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ALEUTIAN_ENV", "production")
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := DefaultConfig()

	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "production")
	}
	if cfg.TraceExporter != "stdout" {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, "stdout")
	}
	if cfg.OTLPEndpoint != "collector:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "collector:4317")
	}
}

func TestInit_NilContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"

	_, err := Init(nil, cfg)
	if err != ErrNilContext {
		t.Errorf("Init(nil, cfg) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_NoopExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if shutdown == nil {
		t.Fatal("shutdown function is nil")
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	tracer := otel.Tracer("test")
	if tracer == nil {
		t.Error("tracer is nil")
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "unknown_exporter"

	_, err := Init(context.Background(), cfg)
	if err == nil {
		t.Error("Init() with unknown exporter should fail")
	}
	if !strings.Contains(err.Error(), "unknown exporter type") {
		t.Errorf("error = %v, want to contain 'unknown exporter type'", err)
	}
}

func TestLoggerWithTrace_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	result := LoggerWithTrace(context.Background(), logger)

	result.Info("test message")
	output := buf.String()

	if strings.Contains(output, "trace_id") {
		t.Errorf("output should not contain trace_id when no span: %s", output)
	}
}

func TestLoggerWithTrace_NilContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	result := LoggerWithTrace(nil, logger)

	result.Info("test message")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("logger should still work with nil context: %s", buf.String())
	}
}

func TestLoggerWithRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	result := LoggerWithRequest(context.Background(), logger, "req-42")

	result.Info("analyzing")
	output := buf.String()

	if !strings.Contains(output, `"request_id":"req-42"`) {
		t.Errorf("output should carry the request ID: %s", output)
	}
}
