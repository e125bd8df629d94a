// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command intentd starts the AleutianIntent analysis HTTP server.
//
// This is the main entry point for the containerized intent service. It
// reads configuration from environment variables, wires the provider
// registry, cache tiers and strategy chain, and serves the REST, SSE
// and WebSocket API until SIGINT or SIGTERM.
//
// # Environment Variables
//
//   - INTENT_PORT: HTTP server port (default: 12310)
//   - OLLAMA_BASE_URL: Ollama daemon URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Ollama model name (default: mistral)
//   - OPENAI_API_KEY: enables the OpenAI provider when set
//   - OPENAI_MODEL: OpenAI model name (default: gpt-4)
//   - GROQ_API_KEY: enables the Groq provider when set
//   - GROQ_MODEL: Groq model name (default: mixtral-8x7b-32768)
//   - ANTHROPIC_API_KEY: enables the Anthropic provider when set
//   - ANTHROPIC_MODEL: Anthropic model name (default: claude-3-opus-20240229)
//   - INTENT_CACHE_TTL: result cache lifetime (default: 24h)
//   - INTENT_CACHE_DIR: BadgerDB path for the shared cache tier (optional)
//   - INTENT_RULES_PATH: YAML override for the keyword rule table (optional)
//   - INTENT_PROMPT_DIR: directory of prompt template overrides (optional)
//   - INTENT_REQUEST_TIMEOUT: per-analysis deadline (default: 60s)
//   - INTENT_RATE_LIMIT: requests allowed per client per window (default: 100)
//   - INTENT_RATE_WINDOW: rate limit window (default: 60s)
//   - OTEL_TRACES_EXPORTER: otlp, stdout or none (default: otlp)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout or none (default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP collector (default: localhost:4317)
//   - INFLUXDB_URL, INFLUXDB_TOKEN: enable analysis analytics export when set
//   - ALEUTIAN_INSECURE_MEMORY: accept a low mlock limit for key storage
//   - ALEUTIAN_LOG_LEVEL: debug, info, warn or error (default: info)
//   - ALEUTIAN_LOG_DIR: also write JSON logs to this directory (optional)
//
// # Usage
//
//	# Build
//	go build -o intentd ./cmd/intentd
//
//	# Run
//	./intentd
//
//	# Analyze a requirement
//	curl -X POST http://localhost:12310/api/v1/process-intent \
//	  -H "Content-Type: application/json" \
//	  -d '{"text": "Add OAuth login to the admin portal"}'
//
//	# Follow the thought stream of a running analysis
//	curl -N http://localhost:12310/api/v1/process-intent/<request_id>/stream
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianIntent/pkg/logging"
	"github.com/AleutianAI/AleutianIntent/services/intent/cache"
	"github.com/AleutianAI/AleutianIntent/services/intent/config"
	"github.com/AleutianAI/AleutianIntent/services/intent/engine"
	"github.com/AleutianAI/AleutianIntent/services/intent/observability"
	"github.com/AleutianAI/AleutianIntent/services/intent/prompts"
	"github.com/AleutianAI/AleutianIntent/services/intent/providers"
	"github.com/AleutianAI/AleutianIntent/services/intent/routes"
	"github.com/AleutianAI/AleutianIntent/services/intent/strategies"
	"github.com/AleutianAI/AleutianIntent/services/intent/thoughts"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Setup structured logging
	logger := logging.FromEnv("intent")
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Lock down secret storage before any key leaves the environment.
	config.Protect()
	defer config.Purge()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	shutdownTelemetry, err := observability.Init(rootCtx, observability.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	ps, err := buildProviders(cfg)
	if err != nil {
		log.Fatalf("Failed to configure providers: %v", err)
	}
	registry := providers.NewRegistry(ps...)
	// Half the request budget per attempt leaves room for at least one
	// failover before the caller's deadline expires.
	registry.SetAttemptTimeout(cfg.RequestTimeout / 2)

	analysisCache, closeCache := buildCache(cfg)

	library, err := prompts.NewLibrary(cfg.PromptDir)
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}
	if err := library.Watch(rootCtx); err != nil {
		slog.Warn("Prompt override watching disabled", "error", err)
	}

	chain, err := strategies.DefaultChain(registry, library, cfg.RulesPath)
	if err != nil {
		log.Fatalf("Failed to build strategy chain: %v", err)
	}

	streams := thoughts.NewStreamManager(thoughts.DefaultStreamCapacity, thoughts.DefaultMaxStreamAge)

	analyzer, err := engine.NewAnalyzer(engine.Config{
		Registry: registry,
		Chain:    chain,
		Cache:    analysisCache,
		Thoughts: streams,
	})
	if err != nil {
		log.Fatalf("Failed to build analyzer: %v", err)
	}

	sink := observability.NewSinkFromEnv()

	slog.Info("Starting intent analysis service",
		"port", cfg.Port,
		"ollama_url", cfg.OllamaBaseURL,
		"providers", len(ps),
		"cache_dir", cfg.CacheDir,
		"request_timeout", cfg.RequestTimeout.String(),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-intent"))
	router.Use(observability.Metrics())
	routes.SetupRoutes(router, analyzer, streams, library, sink, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
		// Thought streams are long-lived, so only header reads get a
		// deadline here. Analysis work is bounded per request instead.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down intent analysis service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown", "error", err)
	}

	cancelRoot()
	streams.Close()
	library.Close()
	if closeCache != nil {
		if err := closeCache(); err != nil {
			slog.Error("Cache shutdown", "error", err)
		}
	}
	if err := registry.Close(); err != nil {
		slog.Error("Provider registry shutdown", "error", err)
	}
	sink.Close()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry shutdown", "error", err)
	}
}

// buildProviders constructs the Ollama backend plus any hosted backend
// whose API key is present in the environment.
func buildProviders(cfg *config.Config) ([]providers.Provider, error) {
	ps := []providers.Provider{
		providers.NewOllama(providers.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
		}),
	}

	if cfg.OpenAIKey.Configured() {
		key, err := cfg.OpenAIKey.Reveal()
		if err != nil {
			return nil, fmt.Errorf("openai key: %w", err)
		}
		p, err := providers.NewOpenAI(providers.OpenAIConfig{APIKey: key, Model: cfg.OpenAIModel})
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		ps = append(ps, p)
	}

	if cfg.GroqKey.Configured() {
		key, err := cfg.GroqKey.Reveal()
		if err != nil {
			return nil, fmt.Errorf("groq key: %w", err)
		}
		p, err := providers.NewGroq(providers.GroqConfig{APIKey: key, Model: cfg.GroqModel})
		if err != nil {
			return nil, fmt.Errorf("groq provider: %w", err)
		}
		ps = append(ps, p)
	}

	if cfg.AnthropicKey.Configured() {
		key, err := cfg.AnthropicKey.Reveal()
		if err != nil {
			return nil, fmt.Errorf("anthropic key: %w", err)
		}
		p, err := providers.NewAnthropic(providers.AnthropicConfig{APIKey: key, Model: cfg.AnthropicModel})
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		ps = append(ps, p)
	}

	return ps, nil
}

// buildCache assembles the cache stack: always an in-memory LRU tier,
// plus a shared BadgerDB tier when INTENT_CACHE_DIR is set. A broken
// shared tier degrades to memory-only instead of refusing to start.
func buildCache(cfg *config.Config) (engine.AnalysisCache, func() error) {
	local := cache.NewResultCache(cfg.CacheTTL, 0)
	if cfg.CacheDir == "" {
		return local, nil
	}

	shared, err := cache.OpenSharedStore(cache.DefaultStoreConfig(cfg.CacheDir))
	if err != nil {
		slog.Warn("Shared cache unavailable, continuing with the in-memory tier only",
			"dir", cfg.CacheDir,
			"error", err,
		)
		return local, nil
	}

	tiered := cache.NewTieredCache(local, shared, cfg.CacheTTL)
	return tiered, tiered.Close
}
