// Package llm abstracts the language-model backends used by the summarization
// pipeline. A Backend names one invocation configuration; Provider is the
// synchronous prompt-in/text-out contract the pipeline depends on.
package llm

import (
	"context"
	"fmt"
	"os"
)

// Provider invokes a language model with a single free-form prompt and
// returns the generated text.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Backend is a named model configuration. Multiple backends may run over the
// same document independently, each producing its own report.
type Backend struct {
	Name            string  `json:"name"`
	Provider        string  `json:"provider"` // gemini, openai, anthropic
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	// BaseURL overrides the provider's default endpoint. For openai this is
	// how NIM, OpenRouter and other compatible services are reached.
	BaseURL string `json:"base_url,omitempty"`
	// Location is the regional endpoint for providers that have one.
	Location  string `json:"location,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
}

// Key resolves the API key, preferring the literal value over the
// environment variable named by APIKeyEnv.
func (b Backend) Key() string {
	if b.APIKey != "" {
		return b.APIKey
	}
	if b.APIKeyEnv != "" {
		return os.Getenv(b.APIKeyEnv)
	}
	return ""
}

// New builds a Provider for the backend's provider kind.
func New(b Backend) (Provider, error) {
	if b.Model == "" {
		return nil, fmt.Errorf("backend %q: model is required", b.Name)
	}
	switch b.Provider {
	case "gemini":
		return NewGemini(b), nil
	case "openai":
		return NewOpenAI(b), nil
	case "anthropic":
		return NewAnthropic(b), nil
	default:
		return nil, fmt.Errorf("backend %q: unknown provider %q", b.Name, b.Provider)
	}
}
