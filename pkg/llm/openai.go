package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls any OpenAI-compatible chat completions endpoint.
// Setting Backend.BaseURL points it at NIM, OpenRouter, Ollama or a
// self-hosted gpt-oss deployment.
type OpenAIClient struct {
	backend Backend
	client  openai.Client
}

// NewOpenAI builds an OpenAI-compatible provider for the backend
// configuration.
func NewOpenAI(b Backend) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(b.Key())}
	if b.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(b.BaseURL))
	}
	return &OpenAIClient{backend: b, client: openai.NewClient(opts...)}
}

// Generate issues one chat completion with the prompt as a single user
// message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.backend.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.backend.Temperature),
	}
	if c.backend.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.backend.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
