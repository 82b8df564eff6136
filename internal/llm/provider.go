// Package llm provides thin HTTP clients for the hosted language models
// the classifier can target (Anthropic, OpenAI-compatible).
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider names for configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Common errors returned by LLM providers. Callers branch with errors.Is:
// ErrNoAPIKey is fatal and never retried; ErrRateLimit and ErrProviderDown
// are transient.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured or rejected")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
)

// Request is a single completion request.
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response represents a complete response from the model.
type Response struct {
	Content string        `json:"content"`
	Model   string        `json:"model"`
	Usage   Usage         `json:"usage"`
	Latency time.Duration `json:"latency"`
}

// Provider is the interface the classifier depends on. Implementations do
// not retry; retry policy belongs to the caller.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic").
	Name() string

	// Complete sends one prompt and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s] %q, %d in / %d out tokens, %v",
		r.Model, truncated, r.Usage.InputTokens, r.Usage.OutputTokens,
		r.Latency.Round(time.Millisecond))
}
