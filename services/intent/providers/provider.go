package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

// GenerationParams carries per-call sampling parameters. Nil fields fall
// back to each backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Provider is the standard interface for any LLM backend.
//
// Implementations must be safe for concurrent use. IsAvailable must
// return within its context deadline; Generate must honor cancellation.
type Provider interface {
	// Name identifies the backend ("ollama", "groq", "openai", "anthropic").
	Name() string

	// Priority ranks providers for selection; lower is preferred.
	Priority() int

	// IsAvailable reports whether the backend can serve a request now.
	IsAvailable(ctx context.Context) bool

	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Latency is the smoothed duration of recent successful calls.
	// Zero until the first success.
	Latency() time.Duration

	// Close releases any held resources.
	Close() error
}

// Selection priorities. Local inference first, then hosted by speed.
const (
	PriorityOllama    = 1
	PriorityGroq      = 2
	PriorityOpenAI    = 3
	PriorityAnthropic = 4
)

// classifyStatus maps an HTTP status from a provider API to the shared
// error taxonomy so retry and breaker decisions are uniform across
// backends.
func classifyStatus(name string, status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}

	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %s returned status %d: %s", resilience.ErrProviderAuth, name, status, snippet)
	case status == 429:
		return fmt.Errorf("%w: %s returned status %d: %s", resilience.ErrProviderRateLimited, name, status, snippet)
	case status >= 500:
		return fmt.Errorf("%w: %s returned status %d: %s", resilience.ErrProviderUnavailable, name, status, snippet)
	default:
		return fmt.Errorf("%s returned status %d: %s", name, status, snippet)
	}
}
