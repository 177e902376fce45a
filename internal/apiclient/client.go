// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient is the HTTP client for the backend REST API.
// It injects the bearer token of the bound session, translates failures
// into the error taxonomy in errors.go and invalidates the session when
// the backend rejects its token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client defaults.
const (
	DefaultTimeout = 15 * time.Second
	MaxErrorBody   = 64 * 1024
	UserAgent      = "trapo-admin/1.0"
)

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	// Token returns the current token, or "" when there is none.
	Token() string
	// Invalidate is called when the backend answered 401 to a request
	// that carried token.
	Invalidate(ctx context.Context, token string)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	Burst      int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend API. A Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	tokens  TokenSource
}

// New creates a Client without a token source.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: unsupported base URL scheme %q", base.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{baseURL: base, http: hc, logger: logger}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// WithTokens returns a copy of c that authenticates with src.
// The copy shares the transport and rate limiter.
func (c *Client) WithTokens(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends a JSON request and decodes a JSON response into out.
// body and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("%s %s: waiting for rate limiter: %w", method, path, ctxErr)
			}
			// The context deadline expires before the next token.
			return fmt.Errorf("%s %s: waiting for rate limiter: %w: %v", method, path, context.DeadlineExceeded, err)
		}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("%s %s: creating request: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	// Read the token at send time so a token invalidated by a concurrent
	// call is never sent again.
	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxErrorBody))
		c.tokens.Invalidate(ctx, token)
		return fmt.Errorf("%s %s: %w", method, path, ErrAuthExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return &DecodeError{Path: path, Err: err}
	}

	if v, ok := out.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

// Get is shorthand for Do with GET.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) resolve(path string) string {
	u := *c.baseURL
	p, q, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + p
	u.RawQuery = q
	return u.String()
}

// parseAPIError reads the backend's error body. The message comes from the
// JSON "message" field, then "error", then the HTTP status text.
func parseAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = fmt.Sprintf("API Error: %d", resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// anonymous returns a copy of c that sends no bearer token. Credential
// exchanges use it so a stale token cannot turn a bad password into a
// session expiry.
func (c *Client) anonymous() *Client {
	return c.WithTokens(nil)
}
