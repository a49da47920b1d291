// Package webhook calls the externally hosted assistant endpoint. The
// endpoint is an opaque black box: one JSON request in, any JSON or plain
// text body out.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Source identifies this service in every outbound payload.
const Source = "medilens-chatbot"

const DefaultTimeout = 30 * time.Second

// Payload is the request body contract with the assistant endpoint.
type Payload struct {
	Message   string `json:"message"`
	Context   string `json:"context"`
	SessionID string `json:"sessionId,omitempty"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

var (
	ErrNotConfigured = errors.New("webhook url is not configured")
	ErrTimeout       = errors.New("webhook request timed out")
	ErrUnreachable   = errors.New("webhook endpoint unreachable")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook response status %d", e.StatusCode)
}

type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		timeout: timeout,
		// The per-call context bounds each request; the client itself has no
		// extra deadline.
		httpClient: &http.Client{},
	}
}

// Configured reports whether an endpoint URL is set. When false, callers
// degrade to a "not configured" reply instead of calling Send.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Send posts the payload and returns the raw response body. The call is
// cancelled after the configured timeout. Errors are classified so the chat
// pipeline can phrase its reply: ErrTimeout, ErrUnreachable, or *StatusError.
func (c *Client) Send(ctx context.Context, p Payload) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	p.Source = Source
	if p.Timestamp == "" {
		p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
