package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const anthropicMaxTokens = 1024

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates an Anthropic-backed client.
func NewAnthropicClient(model, apiKey string, logger *zap.Logger) (*AnthropicClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("cloud-anthropic"),
	}, nil
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	c.logger.Debug("remote classification request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()
	temp := float32(temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      systemMessage,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("remote classification request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", NewError(ErrorTypeMalformed, "no text content in response", false, nil)
	}

	c.logger.Debug("remote classification request completed",
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Model implements Client.
func (c *AnthropicClient) Model() string {
	return c.model
}

// Provider implements Client.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}
