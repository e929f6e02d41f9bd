package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	backend Backend
	client  anthropic.Client
}

// NewAnthropic builds an Anthropic provider for the backend configuration.
func NewAnthropic(b Backend) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(b.Key())}
	if b.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(b.BaseURL))
	}
	return &AnthropicClient{backend: b, client: anthropic.NewClient(opts...)}
}

// Generate issues one Messages call with the prompt as a single user turn
// and concatenates the text blocks of the reply.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := c.backend.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.backend.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(c.backend.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return sb.String(), nil
}
