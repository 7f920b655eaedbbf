// Package client speaks the relay's completion endpoint. It hides whether
// the relay answered with a whole completion or an event stream behind one
// Response shape.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/evanmoss/chatstream/internal/chat"
)

// ErrNotConfigured indicates the relay URL is missing. Surfaced before any
// request is sent.
var ErrNotConfigured = errors.New("completion client: relay url not configured")

// ProviderError is a non-2xx answer from the relay. Status and the raw body
// are preserved for diagnosis.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if msg := gjson.Get(e.Body, "error").String(); msg != "" {
		return fmt.Sprintf("provider error (status %d): %s", e.Status, msg)
	}
	return fmt.Sprintf("provider error (status %d)", e.Status)
}

// Response is one completion answer. Exactly one of Content and Body is
// set: Content for a whole JSON completion, Body for an event stream the
// caller must read and close.
type Response struct {
	Content string
	Body    io.ReadCloser
}

// Streaming reports whether the response must be consumed incrementally.
func (r *Response) Streaming() bool {
	return r.Body != nil
}

// Client sends completion requests to the relay.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the relay at baseURL. The token is optional;
// when set it is sent as a bearer credential. The client carries no overall
// timeout: Client.Timeout would also bound reading a streamed body, so
// deadlines belong to the request context.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

type completionRequest struct {
	Messages []chat.Turn `json:"messages"`
	Model    string      `json:"model,omitempty"`
	Stream   bool        `json:"stream"`
}

// Request asks the relay for a completion of the given turns. A streaming
// response's Body remains readable until closed; the context governs both
// the request and the stream.
func (c *Client) Request(ctx context.Context, turns []chat.Turn, model string, stream bool) (*Response, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(completionRequest{Messages: turns, Model: model, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request completion: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &ProviderError{Status: resp.StatusCode, Body: string(body)}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/event-stream" {
		return &Response{Body: resp.Body}, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	content := gjson.GetBytes(body, "content")
	if !content.Exists() {
		return nil, &ProviderError{Status: resp.StatusCode, Body: string(body)}
	}
	return &Response{Content: content.String()}, nil
}
