package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragqa/internal/domain"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestEmbed_OpenAIShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req struct {
			Input string `json:"input"`
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Input != "hello" || req.Model != "text-embedding-ada-002" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	emb, err := newTestClient(t, server.URL).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("expected 3 dims, got %d", len(emb))
	}
}

func TestEmbed_OllamaShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2}})
	}))
	defer server.Close()

	emb, err := newTestClient(t, server.URL).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb) != 2 {
		t.Errorf("expected 2 dims, got %d", len(emb))
	}
}

func TestEmbed_MissingDataIsShapeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"list"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Embed(context.Background(), "hello")
	var se *domain.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %T: %v", err, err)
	}
	if se.Field != "data" {
		t.Errorf("field = %q", se.Field)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Embed(context.Background(), "test")
	if !domain.IsUpstream(err) {
		t.Errorf("should be an upstream error, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if c.url != "https://api.openai.com/v1/embeddings" {
		t.Errorf("url = %q", c.url)
	}
	if c.model != "text-embedding-ada-002" {
		t.Errorf("model = %q", c.model)
	}
	if _, err := NewClient(Config{}); err == nil {
		t.Error("missing API key should fail")
	}
}
