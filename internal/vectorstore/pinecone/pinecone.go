// Package pinecone queries a Pinecone index over its REST API.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ragqa/internal/domain"
	"ragqa/internal/httpclient"
	"ragqa/internal/payload"
)

const serviceName = "pinecone"

// Storage is a minimal REST client to a single Pinecone index.
type Storage struct {
	url    string
	apiKey string
	http   *httpclient.Client
}

type Config struct {
	// IndexURL is the index host, e.g. https://my-index-abc123.svc.us-east-1-aws.pinecone.io
	IndexURL string
	APIKey   string
	HTTP     *httpclient.Client
}

type queryMatch struct {
	ID       string   `json:"id"`
	Score    *float64 `json:"score"`
	Metadata *struct {
		Link  *string `json:"link"`
		Title *string `json:"title"`
		Text  *string `json:"text"`
	} `json:"metadata"`
}

type queryResponse struct {
	Matches *[]queryMatch `json:"matches"`
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.IndexURL == "" {
		return nil, errors.New("pinecone: missing index url")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: missing API key")
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpclient.New(httpclient.Config{})
	}
	return &Storage{
		url:    strings.TrimRight(cfg.IndexURL, "/") + "/query",
		apiKey: cfg.APIKey,
		http:   cfg.HTTP,
	}, nil
}

func (s *Storage) Name() string { return serviceName }

// Query returns the nearest neighbours of vector in the order Pinecone ranked them.
func (s *Storage) Query(ctx context.Context, vector []float32) ([]domain.Match, error) {
	headers := http.Header{}
	headers.Set("Api-Key", s.apiKey)

	var resp queryResponse
	if err := s.http.PostJSON(ctx, serviceName, s.url, headers, payload.VectorQuery(vector), &resp); err != nil {
		return nil, err
	}
	if resp.Matches == nil {
		return nil, &domain.ShapeError{Service: serviceName, Field: "matches"}
	}
	matches := make([]domain.Match, 0, len(*resp.Matches))
	for i, m := range *resp.Matches {
		field := func(name string) error {
			return &domain.ShapeError{Service: serviceName, Field: fmt.Sprintf("matches[%d].%s", i, name)}
		}
		switch {
		case m.Score == nil:
			return nil, field("score")
		case m.Metadata == nil:
			return nil, field("metadata")
		case m.Metadata.Link == nil:
			return nil, field("metadata.link")
		case m.Metadata.Title == nil:
			return nil, field("metadata.title")
		case m.Metadata.Text == nil:
			return nil, field("metadata.text")
		}
		matches = append(matches, domain.Match{
			ID:    m.ID,
			Score: *m.Score,
			Metadata: domain.MatchMetadata{
				Link:  *m.Metadata.Link,
				Title: *m.Metadata.Title,
				Text:  *m.Metadata.Text,
			},
		})
	}
	return matches, nil
}
