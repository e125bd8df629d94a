// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads intent service settings from the environment.
//
// Every variable is read exactly once at Load time; the rest of the
// service takes values from the returned Config rather than calling
// os.Getenv itself. API keys never live in the struct as plain
// strings. They are sealed into memguard enclaves (see secrets.go)
// and revealed only at the point a provider client is constructed.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort           = 12310
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultOllamaModel    = "mistral"
	DefaultOpenAIModel    = "gpt-4"
	DefaultGroqModel      = "mixtral-8x7b-32768"
	DefaultAnthropicModel = "claude-3-opus-20240229"
	DefaultCacheTTL       = 24 * time.Hour
	DefaultRequestTimeout = 60 * time.Second
	DefaultRateLimit      = 100
	DefaultRateWindow     = 60 * time.Second
)

// Config carries everything the intent service reads from the
// environment. Zero-value string fields mean "not configured" and the
// consumer decides what that implies (skip the provider, skip the
// shared cache tier, use embedded assets).
type Config struct {
	// Port is the HTTP listen port (INTENT_PORT).
	Port int

	// OllamaBaseURL and OllamaModel configure the local Ollama
	// backend (OLLAMA_BASE_URL, OLLAMA_MODEL). Ollama needs no key
	// and is always constructed.
	OllamaBaseURL string
	OllamaModel   string

	// OpenAIKey is nil when OPENAI_API_KEY is unset, in which case
	// the OpenAI provider is not registered. Same pattern for Groq
	// and Anthropic.
	OpenAIKey      *Secret
	OpenAIModel    string
	GroqKey        *Secret
	GroqModel      string
	AnthropicKey   *Secret
	AnthropicModel string

	// CacheTTL bounds result cache entry age (INTENT_CACHE_TTL).
	CacheTTL time.Duration

	// CacheDir enables the shared on-disk cache tier when set
	// (INTENT_CACHE_DIR). Empty means local tier only.
	CacheDir string

	// RulesPath points at a YAML rule table overriding the embedded
	// one (INTENT_RULES_PATH).
	RulesPath string

	// PromptDir points at a directory of prompt template overrides
	// (INTENT_PROMPT_DIR).
	PromptDir string

	// RequestTimeout is the per-analysis deadline enforced by the
	// HTTP layer (INTENT_REQUEST_TIMEOUT).
	RequestTimeout time.Duration

	// RateLimit requests per RateWindow are admitted by the API
	// limiter (INTENT_RATE_LIMIT, INTENT_RATE_WINDOW).
	RateLimit  float64
	RateWindow time.Duration
}

// Load reads the environment into a Config and validates it.
//
// Outputs:
//
//	*Config - Validated configuration.
//	error - Non-nil if any value fails validation. The message lists
//	every violation, not just the first.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("INTENT_PORT", DefaultPort),
		OllamaBaseURL:  getEnvString("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
		OllamaModel:    getEnvString("OLLAMA_MODEL", DefaultOllamaModel),
		OpenAIKey:      NewSecret(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:    getEnvString("OPENAI_MODEL", DefaultOpenAIModel),
		GroqKey:        NewSecret(os.Getenv("GROQ_API_KEY")),
		GroqModel:      getEnvString("GROQ_MODEL", DefaultGroqModel),
		AnthropicKey:   NewSecret(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel: getEnvString("ANTHROPIC_MODEL", DefaultAnthropicModel),
		CacheTTL:       getEnvDuration("INTENT_CACHE_TTL", DefaultCacheTTL),
		CacheDir:       os.Getenv("INTENT_CACHE_DIR"),
		RulesPath:      os.Getenv("INTENT_RULES_PATH"),
		PromptDir:      os.Getenv("INTENT_PROMPT_DIR"),
		RequestTimeout: getEnvDuration("INTENT_REQUEST_TIMEOUT", DefaultRequestTimeout),
		RateLimit:      getEnvFloat("INTENT_RATE_LIMIT", DefaultRateLimit),
		RateWindow:     getEnvDuration("INTENT_RATE_WINDOW", DefaultRateWindow),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all violations at once so a
// misconfigured deployment fails with one complete message instead of
// one error per restart.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be 1-65535, got %d", c.Port))
	}
	if u, err := url.Parse(c.OllamaBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("ollama base URL must be http(s), got %q", c.OllamaBaseURL))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("cache TTL must be positive, got %s", c.CacheTTL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("rate limit must be positive, got %g", c.RateLimit))
	}
	if c.RateWindow <= 0 {
		errs = append(errs, fmt.Sprintf("rate window must be positive, got %s", c.RateWindow))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go duration syntax ("24h", "60s"). A bare
// integer is read as seconds so INTENT_RATE_WINDOW=60 works too.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
