package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

const defaultOpenAIModel = "gpt-4"

// analystSystemPrompt frames every chat-style completion.
const analystSystemPrompt = "You are an expert software development analyst."

// OpenAIConfig configures the OpenAI backend.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// OpenAI serves completions from the OpenAI chat API.
type OpenAI struct {
	providerState
	client *openai.Client
	model  string
}

// NewOpenAI creates the OpenAI backend. The API key is required; the
// model defaults to gpt-4.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4")
	}
	slog.Info("Initializing OpenAI provider", "model", model)
	return &OpenAI{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }
func (o *OpenAI) Priority() int { return PriorityOpenAI }

// IsAvailable lists models as a cheap authenticated probe. A definitive
// auth failure latches the provider off for the process lifetime.
func (o *OpenAI) IsAvailable(ctx context.Context) bool {
	if o.isDisabled() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := o.client.ListModels(ctx); err != nil {
		err = classifyOpenAIError(o.Name(), err)
		if resilience.IsPermanent(err) {
			o.disableForever(o.Name(), err)
		}
		slog.Debug("OpenAI availability probe failed", "error", err)
		return false
	}
	return true
}

// Generate implements the Provider interface.
func (o *OpenAI) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if o.isDisabled() {
		return "", fmt.Errorf("%w: openai disabled after auth failure", resilience.ErrProviderUnavailable)
	}

	ctx, span := tracer.Start(ctx, "OpenAI.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	slog.Debug("Generating text via OpenAI", "model", o.model)
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analystSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		err = classifyOpenAIError(o.Name(), err)
		if resilience.IsPermanent(err) {
			o.disableForever(o.Name(), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("OpenAI API call failed", "error", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return "", fmt.Errorf("%w: openai returned no choices", resilience.ErrMalformedOutput)
	}

	o.observeLatency(time.Since(start))
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// Close implements the Provider interface. The underlying client holds
// no connections of its own.
func (o *OpenAI) Close() error { return nil }

// classifyOpenAIError maps go-openai errors (shared by the OpenAI and
// Groq backends) to the common taxonomy.
func classifyOpenAIError(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(name, apiErr.HTTPStatusCode, []byte(apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(name, reqErr.HTTPStatusCode, []byte(reqErr.Error()))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// Transport-level failure: endpoint unreachable.
	return fmt.Errorf("%w: %s: %v", resilience.ErrProviderUnavailable, name, err)
}
