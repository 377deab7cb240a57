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

const serviceName = "embeddings"

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	url    string
	apiKey string
	model  string
	http   *httpclient.Client
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *httpclient.Client
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embeddings: missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = payload.DefaultEmbeddingModel
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpclient.New(httpclient.Config{})
	}
	return &Client{
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/embeddings",
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		http:   cfg.HTTP,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Embed returns the first embedding the service produces for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	// OpenAI shape first; Ollama-native servers answer {"embedding": [...]}.
	var out struct {
		Data      []goopenai.Embedding `json:"data"`
		Embedding []float32            `json:"embedding"`
	}
	if err := c.http.PostJSON(ctx, serviceName, c.url, headers, payload.Embedding(c.model, text), &out); err != nil {
		return nil, err
	}
	if len(out.Data) > 0 {
		if len(out.Data[0].Embedding) == 0 {
			return nil, &domain.ShapeError{Service: serviceName, Field: "data[0].embedding"}
		}
		return out.Data[0].Embedding, nil
	}
	if len(out.Embedding) > 0 {
		return out.Embedding, nil
	}
	return nil, &domain.ShapeError{Service: serviceName, Field: "data"}
}
