package qdrant

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

const serviceName = "qdrant"

// Storage is a minimal REST client to Qdrant.
// Points are expected to carry link, title and text in their payload.
type Storage struct {
	url    string
	apiKey string
	limit  int
	http   *httpclient.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Limit      int
	HTTP       *httpclient.Client
}

type searchResponse struct {
	Result *[]struct {
		ID      any            `json:"id"`
		Score   *float64       `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant: url and collection are required")
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpclient.New(httpclient.Config{})
	}
	return &Storage{
		url:    fmt.Sprintf("%s/collections/%s/points/search", strings.TrimRight(cfg.URL, "/"), cfg.Collection),
		apiKey: cfg.APIKey,
		limit:  cfg.Limit,
		http:   cfg.HTTP,
	}, nil
}

func (s *Storage) Name() string { return serviceName }

func (s *Storage) Query(ctx context.Context, vector []float32) ([]domain.Match, error) {
	headers := http.Header{}
	if s.apiKey != "" {
		headers.Set("api-key", s.apiKey)
	}
	var resp searchResponse
	if err := s.http.PostJSON(ctx, serviceName, s.url, headers, payload.QdrantSearch(vector, s.limit), &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, &domain.ShapeError{Service: serviceName, Field: "result"}
	}
	results := make([]domain.Match, 0, len(*resp.Result))
	for i, r := range *resp.Result {
		if r.Score == nil {
			return nil, &domain.ShapeError{Service: serviceName, Field: fmt.Sprintf("result[%d].score", i)}
		}
		var md domain.MatchMetadata
		fields := []struct {
			name string
			dst  *string
		}{{"link", &md.Link}, {"title", &md.Title}, {"text", &md.Text}}
		for _, f := range fields {
			v, ok := r.Payload[f.name].(string)
			if !ok {
				return nil, &domain.ShapeError{Service: serviceName, Field: fmt.Sprintf("result[%d].payload.%s", i, f.name)}
			}
			*f.dst = v
		}
		results = append(results, domain.Match{ID: fmt.Sprint(r.ID), Score: *r.Score, Metadata: md})
	}
	return results, nil
}
