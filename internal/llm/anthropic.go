package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient constructs a Messages API client. An empty baseURL
// keeps the SDK default; extra options are applied last.
func NewAnthropicClient(apiKey, baseURL string, timeout time.Duration, opts ...option.RequestOption) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(2),
	}
	if strings.TrimSpace(baseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &AnthropicClient{client: anthropic.NewClient(reqOpts...)}, nil
}

// Complete returns the concatenated text blocks of the model response
func (c *AnthropicClient) Complete(ctx context.Context, model string, maxTokens int, prompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("model is required")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic http status %d: %w", apiErr.StatusCode, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("anthropic request timeout: %w", err)
		}
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
