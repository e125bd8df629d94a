package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

const (
	anthropicAPIVersion   = "2023-06-01"
	anthropicMessagesURL  = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel = "claude-3-opus-20240229"
	anthropicMaxTokens    = 4096
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    []systemBlock      `json:"system,omitempty"` // Top-level system prompt
	MaxTokens int                `json:"max_tokens"`

	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	StopSeqs    []string `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"` // Must be "ephemeral"
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicConfig configures the Anthropic backend.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string // test override; defaults to the public API
}

// Anthropic serves completions from the Anthropic Messages API via a
// hand-rolled REST client.
type Anthropic struct {
	providerState
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewAnthropic creates the Anthropic backend. The API key is required;
// the model defaults to claude-3-opus-20240229.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not configured")
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
		slog.Info("ANTHROPIC_MODEL not set, defaulting to", "model", model)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicMessagesURL
	}

	slog.Info("Initializing Anthropic provider", "model", model)
	return &Anthropic{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }
func (a *Anthropic) Priority() int { return PriorityAnthropic }

// IsAvailable reports whether the backend is usable. The Messages API
// has no free health endpoint, so a configured key that has not hit the
// permanent-failure latch counts as available; a bad key is discovered
// and latched on the first Generate.
func (a *Anthropic) IsAvailable(ctx context.Context) bool {
	return a.apiKey != "" && !a.isDisabled()
}

// Generate implements the Provider interface.
func (a *Anthropic) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if a.isDisabled() {
		return "", fmt.Errorf("%w: anthropic disabled after auth failure", resilience.ErrProviderUnavailable)
	}

	ctx, span := tracer.Start(ctx, "Anthropic.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", a.model))

	slog.Debug("Generating text via Anthropic", "model", a.model)
	start := time.Now()

	block := systemBlock{Type: "text", Text: analystSystemPrompt}
	if len(analystSystemPrompt) > 1024 {
		block.CacheControl = &cacheControl{Type: "ephemeral"}
	}

	reqPayload := anthropicRequest{
		Model:     a.model,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		System:    []systemBlock{block},
		MaxTokens: anthropicMaxTokens,
	}
	if params.Temperature != nil {
		reqPayload.Temperature = params.Temperature
	}
	if params.TopP != nil {
		reqPayload.TopP = params.TopP
	}
	if params.TopK != nil {
		reqPayload.TopK = params.TopK
	}
	if params.MaxTokens != nil {
		reqPayload.MaxTokens = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		reqPayload.StopSeqs = params.Stop
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Anthropic API call failed", "error", err)
		return "", fmt.Errorf("%w: anthropic: %v", resilience.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := classifyStatus(a.Name(), resp.StatusCode, bodyBytes)
		if resilience.IsPermanent(err) {
			a.disableForever(a.Name(), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Anthropic returned an error", "status_code", resp.StatusCode)
		return "", err
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("%w: received empty content from anthropic", resilience.ErrMalformedOutput)
	}

	finalText := ""
	for _, b := range apiResp.Content {
		if b.Type == "text" {
			finalText += b.Text
		}
	}
	if finalText == "" {
		return "", fmt.Errorf("%w: received content but no text block", resilience.ErrMalformedOutput)
	}

	a.observeLatency(time.Since(start))
	slog.Debug("Received response from Anthropic")
	return finalText, nil
}

// Close releases idle connections.
func (a *Anthropic) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
