package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

func TestNewAnthropic(t *testing.T) {
	if _, err := NewAnthropic(AnthropicConfig{}); err == nil {
		t.Error("construction without an API key should fail")
	}

	a, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}
	if a.model != defaultAnthropicModel {
		t.Errorf("model = %q, want %q", a.model, defaultAnthropicModel)
	}
	if a.Name() != "anthropic" || a.Priority() != PriorityAnthropic {
		t.Errorf("identity = (%s, %d), want (anthropic, %d)", a.Name(), a.Priority(), PriorityAnthropic)
	}
	if !a.IsAvailable(context.Background()) {
		t.Error("configured key should count as available before the first call")
	}
}

func TestAnthropic_Generate(t *testing.T) {
	var seen anthropicRequest
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_01",
			"type": "message",
			"role": "assistant",
			"content": []map[string]string{
				{"type": "text", "text": "The intent "},
				{"type": "text", "text": "is bug_fix."},
			},
		})
	}))
	defer srv.Close()

	a, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}

	text, err := a.Generate(context.Background(), "Classify this", GenerationParams{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "The intent is bug_fix." {
		t.Errorf("Generate = %q: text blocks should be concatenated", text)
	}

	if gotKey != "sk-ant-test" {
		t.Errorf("x-api-key = %q, want the configured key", gotKey)
	}
	if gotVersion != anthropicAPIVersion {
		t.Errorf("anthropic-version = %q, want %q", gotVersion, anthropicAPIVersion)
	}
	if len(seen.Messages) != 1 || seen.Messages[0].Role != "user" {
		t.Errorf("unexpected messages: %+v", seen.Messages)
	}
	if len(seen.System) != 1 || seen.System[0].Text != analystSystemPrompt {
		t.Errorf("system block not forwarded: %+v", seen.System)
	}
	if seen.MaxTokens != anthropicMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", seen.MaxTokens, anthropicMaxTokens)
	}
	if a.Latency() <= 0 {
		t.Error("latency sample should be recorded after a successful call")
	}
}

func TestAnthropic_Generate_AuthLatchesProviderOff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}

	_, genErr := a.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(genErr, resilience.ErrProviderAuth) {
		t.Fatalf("401 should map to ErrProviderAuth, got: %v", genErr)
	}
	if !resilience.IsPermanent(genErr) {
		t.Errorf("auth failure should be permanent: %v", genErr)
	}

	if a.IsAvailable(context.Background()) {
		t.Error("provider should be latched off after an auth failure")
	}
	if _, err := a.Generate(context.Background(), "p", GenerationParams{}); !errors.Is(err, resilience.ErrProviderUnavailable) {
		t.Errorf("latched provider should refuse further calls, got: %v", err)
	}
}

func TestAnthropic_Generate_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []map[string]string{}})
	}))
	defer srv.Close()

	a, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}

	_, genErr := a.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(genErr, resilience.ErrMalformedOutput) {
		t.Errorf("empty content should map to ErrMalformedOutput, got: %v", genErr)
	}
}

func TestAnthropic_Generate_ExplicitParams(t *testing.T) {
	var seen anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "ok"}},
		})
	}))
	defer srv.Close()

	a, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}

	temp := float32(0.1)
	maxTokens := 512
	_, genErr := a.Generate(context.Background(), "p", GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Stop:        []string{"END"},
	})
	if genErr != nil {
		t.Fatalf("Generate failed: %v", genErr)
	}

	if seen.Temperature == nil || *seen.Temperature != temp {
		t.Errorf("temperature = %v, want %v", seen.Temperature, temp)
	}
	if seen.MaxTokens != 512 {
		t.Errorf("max_tokens = %d, want 512", seen.MaxTokens)
	}
	if len(seen.StopSeqs) != 1 || seen.StopSeqs[0] != "END" {
		t.Errorf("stop_sequences = %v, want [END]", seen.StopSeqs)
	}
}
