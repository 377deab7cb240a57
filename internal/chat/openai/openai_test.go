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

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Messages[1].Content != "foobar\n\nWhat is it?" {
			t.Errorf("user content = %q", req.Messages[1].Content)
		}
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[
			{"index":0,"message":{"role":"assistant","content":"Paris"},"finish_reason":"stop"},
			{"index":1,"message":{"role":"assistant","content":"Lyon"},"finish_reason":"stop"}
		]}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL + "/v1", APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	answer, err := c.Complete(context.Background(), "foobar", "What is it")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if answer != "Paris" {
		t.Errorf("answer = %q", answer)
	}
}

func TestComplete_MissingChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"c1","object":"chat.completion"}`))
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	_, err := c.Complete(context.Background(), "", "q")
	var se *domain.ShapeError
	if !errors.As(err, &se) || se.Field != "choices" {
		t.Fatalf("expected ShapeError on choices, got %v", err)
	}
}

func TestComplete_MissingContent(t *testing.T) {
	for _, body := range []string{
		`{"choices":[{"index":0,"message":{"role":"assistant"}}]}`,
		`{"choices":[{"index":0,"message":{"role":"assistant","content":null,"tool_calls":[]},"finish_reason":"tool_calls"}]}`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		c, _ := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
		got, err := c.Complete(context.Background(), "", "q")
		server.Close()
		var se *domain.ShapeError
		if !errors.As(err, &se) || se.Field != "choices[0].message.content" {
			t.Errorf("%s: expected ShapeError on content, got %q, %v", body, got, err)
		}
	}
}

func TestComplete_EmptyContentIsAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`))
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	got, err := c.Complete(context.Background(), "", "q")
	if err != nil || got != "" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	_, err := c.Complete(context.Background(), "", "q")
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if ue.StatusCode != http.StatusTooManyRequests || ue.Message != "Rate limit reached" {
		t.Errorf("unexpected error: %+v", ue)
	}
}

func TestComplete_CustomModelAndPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" || req.Messages[0].Content != "Only answer from context." {
			t.Errorf("overrides not sent: %+v", req)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	c, _ := NewClient(Config{BaseURL: server.URL, APIKey: "k", Model: "gpt-4o-mini", SystemPrompt: "Only answer from context."})
	if _, err := c.Complete(context.Background(), "ctx", "q"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
}
