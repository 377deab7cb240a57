package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ragqa/internal/domain"
)

type echo struct {
	Value string `json:"value"`
}

func TestPostJSON_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if got := r.Header.Get("Api-Key"); got != "secret" {
			t.Errorf("api-key = %q", got)
		}
		var in echo
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(echo{Value: in.Value + "!"})
	}))
	defer server.Close()

	c := New(Config{})
	headers := http.Header{}
	headers.Set("Api-Key", "secret")
	var out echo
	if err := c.PostJSON(context.Background(), "test", server.URL, headers, echo{Value: "hi"}, &out); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if out.Value != "hi!" {
		t.Errorf("value = %q", out.Value)
	}
}

func TestPostJSON_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var out echo
	err := New(Config{Timeout: time.Second}).PostJSON(context.Background(), "test", url, nil, echo{}, &out)
	var ne *domain.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if ne.Service != "test" {
		t.Errorf("service = %q", ne.Service)
	}
}

func TestPostJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	var out echo
	err := New(Config{}).PostJSON(context.Background(), "test", server.URL, nil, echo{}, &out)
	var de *domain.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
	if domain.IsNetwork(err) {
		t.Error("decode error must not be classified as network error")
	}
}

func TestPostJSON_UpstreamError(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"openai", `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "Incorrect API key provided"},
		{"pinecone", `{"code":16,"message":"Invalid API Key"}`, "Invalid API Key"},
		{"qdrant", `{"status":{"error":"Not found: Collection missing"}}`, "Not found: Collection missing"},
		{"plain", "unauthorized", "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			var out echo
			err := New(Config{}).PostJSON(context.Background(), "svc", server.URL, nil, echo{}, &out)
			var ue *domain.UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("expected UpstreamError, got %T: %v", err, err)
			}
			if ue.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d", ue.StatusCode)
			}
			if ue.Message != tc.want {
				t.Errorf("message = %q, want %q", ue.Message, tc.want)
			}
		})
	}
}

func TestPostJSON_NoRetryByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out echo
	if err := New(Config{}).PostJSON(context.Background(), "svc", server.URL, nil, echo{}, &out); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestPostJSON_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(echo{Value: "ok"})
	}))
	defer server.Close()

	var out echo
	if err := New(Config{MaxRetries: 2}).PostJSON(context.Background(), "svc", server.URL, nil, echo{}, &out); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("value = %q", out.Value)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestPostJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	var out echo
	_ = New(Config{MaxRetries: 3}).PostJSON(context.Background(), "svc", server.URL, nil, echo{}, &out)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestRetryDelay(t *testing.T) {
	if d := retryDelay(0); d != 200*time.Millisecond {
		t.Errorf("attempt 0: %v", d)
	}
	if d := retryDelay(2); d != 800*time.Millisecond {
		t.Errorf("attempt 2: %v", d)
	}
	if d := retryDelay(40); d != 5*time.Second {
		t.Errorf("attempt 40: %v", d)
	}
}
