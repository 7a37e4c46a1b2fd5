// Package backend is the HTTP client for the matching backend's REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fitnest/client/internal/config"
	"fitnest/client/internal/logging"

	"go.uber.org/zap"
)

var ErrUnauthorized = errors.New("backend: unauthorized")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource supplies the bearer token for each request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	BearerToken() string
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.logger = l } }

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url must be http or https, got %q", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: config.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c, nil
}

// SetTokenSource swaps the token source, e.g. after login.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// WebSocketURL derives the chat socket address: the base URL with http
// swapped for ws (https for wss) and path /chat/ws/{userId}/{token}.
func (c *Client) WebSocketURL(userID int64, token string) string {
	return WebSocketURL(c.baseURL.String(), userID, token)
}

func WebSocketURL(baseURL string, userID int64, token string) string {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/") + "/chat/ws/" + strconv.FormatInt(userID, 10) + "/" + url.PathEscape(token)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if tok := c.tokens.BearerToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("backend: encode %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(buf), "application/json", out)
}
