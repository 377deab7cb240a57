// Package openai calls an OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"ragqa/internal/domain"
	"ragqa/internal/httpclient"
	"ragqa/internal/payload"
)

const serviceName = "chat"

// chatResponse keeps content as a pointer so a reply without it is detected.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason goopenai.FinishReason `json:"finish_reason"`
	} `json:"choices"`
}

// Client implements domain.ChatModel.
type Client struct {
	url          string
	apiKey       string
	model        string
	systemPrompt string
	http         *httpclient.Client
}

// Config configures the chat client. Empty Model and SystemPrompt fall back
// to the payload defaults.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	HTTP         *httpclient.Client
}

// NewClient creates a chat client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chat: missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpclient.New(httpclient.Config{})
	}
	return &Client{
		url:          strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		http:         cfg.HTTP,
	}, nil
}

// Name returns the identifier of this chat implementation.
func (c *Client) Name() string { return "openai" }

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, retrieved, query string) (string, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	var resp chatResponse
	req := payload.Chat(c.model, c.systemPrompt, retrieved, query)
	if err := c.http.PostJSON(ctx, serviceName, c.url, headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ShapeError{Service: serviceName, Field: "choices"}
	}
	content := resp.Choices[0].Message.Content
	if content == nil {
		return "", &domain.ShapeError{Service: serviceName, Field: "choices[0].message.content"}
	}
	return *content, nil
}
