package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const anthropicMaxTokens = 2000

// AnthropicClient is a Generator backed by the Anthropic Messages API.
// Embeddings are not offered by Anthropic; the retrieval index keeps
// using the OpenAI-compatible Embedder regardless of provider.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates a Generator backed by Anthropic.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// GenerateText implements Generator.
func (c *AnthropicClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	temp := float32(temperature)

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      systemPrompt,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &userPrompt},
			}},
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("create messages: %w", err)
	}

	c.logger.Info("LLM request completed",
		zap.Duration("elapsed", time.Since(start)))

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// GenerateJSON implements Generator.
func (c *AnthropicClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	raw, err := c.GenerateText(ctx, systemPrompt, userPrompt, temperature)
	if err != nil {
		return "", err
	}

	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return raw, fmt.Errorf("extract JSON: %w", err)
	}
	return jsonStr, nil
}

// GenerateStream implements Generator. The Messages API response is
// delivered as a single callback; token-level streaming stays on the
// OpenAI-compatible path.
func (c *AnthropicClient) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, onToken func(string)) (string, error) {
	text, err := c.GenerateText(ctx, systemPrompt, userPrompt, temperature)
	if err != nil {
		return "", err
	}
	if onToken != nil {
		onToken(text)
	}
	return text, nil
}

var _ Generator = (*AnthropicClient)(nil)
