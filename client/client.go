// Package client talks to a whochat server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bitfsorg/whochat/chat"
)

// MaxResponseSize caps response bodies read from the server (1 MiB).
const MaxResponseSize = 1 << 20

// ErrConnectionFailed indicates the server could not be reached.
var ErrConnectionFailed = errors.New("client: connection failed")

// StatusError is a non-200 response from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: HTTP %d: %s", e.Code, e.Message)
}

// Unwrap maps the status to the matching chat error where one exists, so
// callers can test with errors.Is(err, chat.ErrChatNotFound).
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return chat.ErrChatNotFound
	case http.StatusForbidden:
		return chat.ErrWrongPassword
	}
	return nil
}

// Client is a whochat HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the server at baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accessBody struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type postBody struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Content  string `json:"content"`
}

// Get returns the text of chat name.
func (c *Client) Get(ctx context.Context, name, password string) (string, error) {
	return c.call(ctx, "/who_chat/get", accessBody{Name: name, Password: password})
}

// Post creates or appends to chat name and returns the server's reply.
func (c *Client) Post(ctx context.Context, name, password, content string) (string, error) {
	return c.call(ctx, "/who_chat/post", postBody{Name: name, Password: password, Content: content})
}

// Delete removes chat name and returns the server's reply.
func (c *Client) Delete(ctx context.Context, name, password string) (string, error) {
	return c.call(ctx, "/who_chat/delete", accessBody{Name: name, Password: password})
}

func (c *Client) call(ctx context.Context, path string, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("client: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Message: string(text)}
	}
	return string(text), nil
}
