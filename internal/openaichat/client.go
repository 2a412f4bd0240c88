package openaichat

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/MikeSquared-Agency/persona/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Client sends chat completions through an OpenAI-compatible endpoint.
type Client struct {
	model       llms.Model
	maxTokens   int
	temperature float64
}

func NewClient(apiKey, model, baseURL string, maxTokens int) (*Client, error) {
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &Client{model: m, maxTokens: maxTokens}, nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(m llms.Model, maxTokens int) *Client {
	return &Client{model: m, maxTokens: maxTokens}
}

// WithTemperature returns a copy of c that samples at t. Zero leaves the
// provider default.
func (c *Client) WithTemperature(t float64) *Client {
	cp := *c
	cp.temperature = t
	return &cp
}

// Complete returns the *llms.ContentResponse as the envelope.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (llm.Envelope, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	var opts []llms.CallOption
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return resp, nil
}

func messageType(role string) schema.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return schema.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
