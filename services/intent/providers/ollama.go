package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

var tracer = otel.Tracer("aleutian.intent.providers")

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "mistral"
	defaultOllamaTimeout = 5 * time.Minute
	probeTimeout         = 5 * time.Second
)

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Ollama serves completions from a local Ollama daemon.
type Ollama struct {
	providerState
	httpClient *http.Client
	baseURL    string
	model      string
}

// Ollama API request structure
type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllama creates the Ollama backend. Missing config fields fall back
// to localhost defaults, so a bare NewOllama(OllamaConfig{}) always
// constructs; availability is decided at probe time.
func NewOllama(cfg OllamaConfig) *Ollama {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	slog.Info("Initializing Ollama provider", "base_url", baseURL, "model", model)
	return &Ollama{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      model,
	}
}

func (o *Ollama) Name() string { return "ollama" }
func (o *Ollama) Priority() int { return PriorityOllama }

// IsAvailable probes GET /api/tags and confirms the configured model is
// pulled. The probe is bounded to 5s regardless of the caller's context.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	if o.isDisabled() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		slog.Debug("Ollama availability probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	for _, m := range tags.Models {
		// Tags carry versions ("mistral:latest"); match on the base name
		if m.Name == o.model || strings.HasPrefix(m.Name, o.model+":") {
			return true
		}
	}

	slog.Debug("Ollama reachable but model not pulled", "model", o.model)
	return false
}

// Generate implements the Provider interface.
func (o *Ollama) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if o.isDisabled() {
		return "", resilience.ErrProviderUnavailable
	}

	ctx, span := tracer.Start(ctx, "Ollama.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	slog.Debug("Generating text via Ollama", "model", o.model)
	start := time.Now()

	options := make(map[string]interface{})
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	} else {
		options["temperature"] = float32(0.2)
	}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	} else {
		options["top_k"] = 20
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	} else {
		options["top_p"] = float32(0.9)
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	} else {
		options["num_predict"] = 8192
	}
	if len(params.Stop) > 0 {
		options["stop"] = params.Stop
	}

	payload := ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	}

	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to marshal request to Ollama: %w", err)
	}

	// Use NewRequestWithContext to respect context cancellation/timeout
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create request to Ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Ollama API call failed", "error", err)
		return "", fmt.Errorf("%w: ollama: %v", resilience.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to read response body from Ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			var errResp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(respBodyBytes, &errResp); err == nil &&
				strings.Contains(errResp.Error, "model") && strings.Contains(errResp.Error, "not found") {
				slog.Warn("Ollama model not found", "model", o.model)
				return "", fmt.Errorf("model '%s' not found. Please run: 'ollama pull %s'", o.model, o.model)
			}
		}
		err := classifyStatus(o.Name(), resp.StatusCode, respBodyBytes)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Ollama returned an error", "status_code", resp.StatusCode)
		return "", err
	}

	var ollamaResp ollamaGenerateResponse
	if err := json.Unmarshal(respBodyBytes, &ollamaResp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to parse JSON response from Ollama", "error", err)
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	o.observeLatency(time.Since(start))
	slog.Debug("Received response from Ollama")
	return ollamaResp.Response, nil
}

// Close releases idle connections.
func (o *Ollama) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
