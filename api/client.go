// Package api is the request/response client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the cookie the backend authenticates requests with
const SessionCookie = "session"

var (
	// ErrNotFound means the backend answered but had nothing usable.
	ErrNotFound = errors.New("not found")
	// ErrNetwork means the request never produced a readable answer.
	ErrNetwork = errors.New("network error")
	// ErrRejected means the backend refused a create request.
	ErrRejected = errors.New("rejected")
	// ErrInvalidContent means content failed local checks and was not sent.
	ErrInvalidContent = errors.New("invalid content")
)

// StatusError carries a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Client talks to the chat backend REST endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// New returns a client for baseURL whose requests carry the session token
// and give up after timeout.
func New(baseURL, sessionToken string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: WithCredentials(http.DefaultTransport, sessionToken),
		},
		Logger: logger,
	}
}

// do sends one request and decodes a 2xx JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp, &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("%s %s: decode: %w: %w", method, path, ErrNetwork, err)
		}
	}
	return resp, nil
}

type credentialsTransport struct {
	base  http.RoundTripper
	token string
}

// WithCredentials wraps base so every request carries the session cookie.
// An empty token leaves requests untouched.
func WithCredentials(base http.RoundTripper, token string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &credentialsTransport{base: base, token: token}
}

func (t *credentialsTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.base.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: t.token})
	return t.base.RoundTrip(r)
}
