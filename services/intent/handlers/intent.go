// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the HTTP handlers for the intent service.
//
// Handlers are closures over their dependencies so routes.SetupRoutes
// can wire them without package-level state. Error mapping is uniform:
// malformed or invalid input is 400, an analysis that outruns its
// deadline is 504, an unknown stream or provider is 404, and anything
// else the engine reports is 500.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
	"github.com/AleutianAI/AleutianIntent/services/intent/engine"
	"github.com/AleutianAI/AleutianIntent/services/intent/observability"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

var intentTracer = otel.Tracer("aleutian.intent.handlers")

// AnalyzeResponse is the wire shape for one completed analysis.
type AnalyzeResponse struct {
	RequestID  string                   `json:"request_id"`
	IntentType datatypes.IntentCategory `json:"intent_type"`
	Confidence float64                  `json:"confidence"`
	Summary    string                   `json:"summary"`
	Tasks      []datatypes.Task         `json:"tasks"`
	Metadata   map[string]any           `json:"metadata,omitempty"`
	Timestamp  int64                    `json:"timestamp"`
}

// HandleProcessIntent runs one analysis end to end.
//
// # Description
//
// Binds and validates the request, registers a thought stream under the
// request ID so subscribers can follow progress, and runs the analysis
// under the service-wide deadline. The stream is closed when the
// handler returns, which tells any subscriber the sequence is over.
//
// # Status Codes
//
//   - 200: Analysis complete (possibly the low-confidence fallback).
//   - 400: Malformed body or failed validation.
//   - 504: Deadline expired before any strategy finished.
//   - 500: Engine failure outside the timeout path.
func HandleProcessIntent(analyzer *engine.Analyzer, streams *thoughts.StreamManager,
	sink *observability.AnalysisSink, timeout time.Duration) gin.HandlerFunc {

	return func(c *gin.Context) {
		ctx, span := intentTracer.Start(c.Request.Context(), "HandleProcessIntent")
		defer span.End()

		var req datatypes.AnalyzeRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the analyze request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.EnsureDefaults()
		span.SetAttributes(attribute.String("request_id", req.RequestID))

		logger := observability.LoggerWithRequest(ctx, nil, req.RequestID)
		logger.Info("Processing intent request", "text_chars", len(req.Text))

		streams.CreateStream(req.RequestID)
		defer streams.CloseStream(req.RequestID)

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := analyzer.Analyze(ctx, &req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if errors.Is(err, engine.ErrProcessingTimeout) {
				logger.Error("Intent processing timed out", "timeout", timeout)
				observability.RecordAnalysis("none", string(datatypes.IntentUnknown), observability.AnalysisError)
				c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Processing timeout"})
				return
			}
			logger.Error("Failed to process intent", "error", err)
			observability.RecordAnalysis("none", string(datatypes.IntentUnknown), observability.AnalysisError)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process intent"})
			return
		}

		observability.RecordAnalysis(strategyLabel(result), string(result.IntentType), analysisStatus(result))
		sink.Record(ctx, result)

		logger.Info("Intent processed successfully",
			"intent_type", string(result.IntentType),
			"confidence", result.Confidence,
			"task_count", len(result.Tasks))

		c.JSON(http.StatusOK, AnalyzeResponse{
			RequestID:  req.RequestID,
			IntentType: result.IntentType,
			Confidence: result.Confidence,
			Summary:    result.Summary,
			Tasks:      result.Tasks,
			Metadata:   result.Metadata,
			Timestamp:  datatypes.Timestamp(),
		})
	}
}

// HandleValidateTasks checks a task breakdown without running an
// analysis. Hard issues (cycles, dangling dependencies, duplicates)
// make the breakdown invalid; suggestions are advisory only.
func HandleValidateTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := intentTracer.Start(c.Request.Context(), "HandleValidateTasks")
		defer span.End()

		var req datatypes.ValidateTasksRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			slog.Error("Failed to parse the validate-tasks request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vr := engine.ValidateTasks(req.Tasks)
		span.SetAttributes(
			attribute.Bool("valid", vr.IsValid),
			attribute.Int("issues", len(vr.Issues)),
		)

		c.JSON(http.StatusOK, gin.H{
			"valid":       vr.IsValid,
			"issues":      vr.Issues,
			"suggestions": vr.Suggestions,
			"timestamp":   datatypes.Timestamp(),
		})
	}
}

// strategyLabel keeps the strategy metric label non-empty for results
// that never recorded one (the minimal fallback).
func strategyLabel(result *datatypes.IntentAnalysisResult) string {
	if s := result.Strategy(); s != "" {
		return s
	}
	return "none"
}

// analysisStatus classifies a successful result for the analyses
// counter: served from cache, synthesized fallback, or a normal
// strategy product.
func analysisStatus(result *datatypes.IntentAnalysisResult) string {
	if result.Metadata != nil {
		if cached, ok := result.Metadata[datatypes.MetaCached].(bool); ok && cached {
			return observability.AnalysisCached
		}
		if _, ok := result.Metadata[datatypes.MetaError]; ok {
			return observability.AnalysisFallback
		}
	}
	return observability.AnalysisOK
}
