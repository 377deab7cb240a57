// Package httpclient posts JSON to the remote services and classifies failures
// into network, upstream, and decode errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ragqa/internal/domain"
)

const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a network error,
	// a 429, or a 5xx. Zero disables retries.
	MaxRetries int
	Logger     *zap.Logger
	// HTTPClient overrides the underlying client; Timeout is then ignored.
	HTTPClient *http.Client
}

// Client issues synchronous JSON POST requests.
type Client struct {
	client     *http.Client
	maxRetries int
	logger     *zap.Logger
}

// New creates a Client. A zero Timeout defaults to 30s.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		t := cfg.Timeout
		if t == 0 {
			t = 30 * time.Second
		}
		hc = &http.Client{Timeout: t}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{client: hc, maxRetries: maxRetries, logger: logger}
}

// PostJSON marshals body, posts it to url with headers, and decodes the
// response into out. service names the remote side in errors and logs.
func (c *Client) PostJSON(ctx context.Context, service, url string, headers http.Header, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshaling request: %w", service, err)
	}
	for attempt := 0; ; attempt++ {
		retryAfter, err := c.post(ctx, service, url, headers, data, out)
		if err == nil {
			return nil
		}
		if attempt >= c.maxRetries || !retryable(err) {
			return err
		}
		delay := retryDelay(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.logger.Warn("retrying request",
			zap.String("service", service),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return &domain.NetworkError{Service: service, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

func (c *Client) post(ctx context.Context, service, url string, headers http.Header, data []byte, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%s: creating request: %w", service, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &domain.NetworkError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("service responded",
		zap.String("service", service),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseRetryAfter(resp.Header.Get("Retry-After")), &domain.UpstreamError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &domain.NetworkError{Service: service, Err: err}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return 0, &domain.DecodeError{Service: service, Err: err}
	}
	return 0, nil
}

// errorMessage extracts a human-readable message from an error body. OpenAI
// wraps it in {"error":{...}}; Pinecone and Qdrant use a top-level field.
func errorMessage(raw []byte) string {
	var oaErr openai.ErrorResponse
	if err := json.Unmarshal(raw, &oaErr); err == nil && oaErr.Error != nil && oaErr.Error.Message != "" {
		return oaErr.Error.Message
	}
	var generic struct {
		Message string `json:"message"`
		Status  struct {
			Error string `json:"error"`
		} `json:"status"`
	}
	if err := json.Unmarshal(raw, &generic); err == nil {
		if generic.Message != "" {
			return generic.Message
		}
		if generic.Status.Error != "" {
			return generic.Status.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func retryable(err error) bool {
	var ne *domain.NetworkError
	if errors.As(err, &ne) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode == http.StatusTooManyRequests || ue.StatusCode >= 500
	}
	return false
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
