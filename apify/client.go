//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of apify-haystack.
//
// apify-haystack is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// apify-haystack is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with apify-haystack. If not, see https://www.gnu.org/licenses/.

// Package apify implements the haystack.RunClient interface against the
// Apify REST API v2. It covers exactly what the loader needs: starting
// Actor and task runs, waiting for them, and reading dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	haystack "github.com/apify/apify-haystack"
)

const (
	// DefaultBaseURL is the public Apify API endpoint.
	DefaultBaseURL = "https://api.apify.com/v2"

	// EnvAPIToken is the environment variable consulted when no token
	// option is given.
	EnvAPIToken = "APIFY_API_TOKEN"

	// maxWaitForFinish is the per-request cap the platform places on the
	// waitForFinish query parameter.
	maxWaitForFinish = 60 * time.Second
)

// APIError provides structured error information for Apify API operations.
type APIError struct {
	Op         string // operation that failed (e.g., "start_run", "wait_run", "list_items")
	StatusCode int    // HTTP status code if applicable
	URL        string // URL being accessed when the error occurred
	Err        error  // underlying error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("apify %s [%d] %s: %v", e.Op, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("apify %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ClientStats holds statistics about the client's API usage. The client
// updates the counters atomically; one client may serve loaders on several
// goroutines.
type ClientStats struct {
	RequestCount int64 // total HTTP requests made
	RetryCount   int64 // number of retries performed
	RecordsRead  int64 // total dataset items read
	BytesRead    int64 // total response bytes read
}

// ClientOptions configures the Apify client.
type ClientOptions struct {
	Token         string        // API token; falls back to APIFY_API_TOKEN
	BaseURL       string        // API endpoint, overridable for testing
	Timeout       time.Duration // per-request HTTP timeout
	RetryAttempts int           // retries on 429 and 5xx responses
	RetryDelay    time.Duration // base delay between retries
	PageSize      int           // dataset items fetched per page
	UserAgent     string        // User-Agent header
	HTTPClient    *http.Client  // custom HTTP client
}

// ClientOption represents a configuration function for ClientOptions.
type ClientOption func(*ClientOptions)

// WithToken sets the API token explicitly.
func WithToken(token string) ClientOption {
	return func(opts *ClientOptions) {
		opts.Token = token
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(opts *ClientOptions) {
		opts.BaseURL = baseURL
	}
}

// WithTimeout sets the per-request HTTP timeout. It does not bound the wait
// for run completion; that bound belongs to the loader.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.Timeout = timeout
	}
}

// WithRetries configures transport-level retries on 429 and 5xx responses.
func WithRetries(attempts int, delay time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.RetryAttempts = attempts
		opts.RetryDelay = delay
	}
}

// WithPageSize sets how many dataset items are fetched per page.
func WithPageSize(pageSize int) ClientOption {
	return func(opts *ClientOptions) {
		opts.PageSize = pageSize
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(opts *ClientOptions) {
		opts.UserAgent = userAgent
	}
}

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// Client talks to the Apify REST API v2 and implements haystack.RunClient.
type Client struct {
	opts   *ClientOptions
	client *http.Client
	stats  ClientStats
}

// NewClient creates an Apify API client. The token is taken from the
// options or from the APIFY_API_TOKEN environment variable; a client
// without a token is a configuration error.
func NewClient(options ...ClientOption) (*Client, error) {
	opts := &ClientOptions{
		BaseURL:       DefaultBaseURL,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
		PageSize:      1000,
		// Suffix identifies this integration for attribution purposes.
		UserAgent: "apify-haystack-go/1.0; Origin/haystack",
	}
	for _, option := range options {
		option(opts)
	}

	if opts.Token == "" {
		opts.Token = os.Getenv(EnvAPIToken)
	}
	if opts.Token == "" {
		return nil, &haystack.ConfigError{
			Op:  "client",
			Msg: "Apify API token not found; pass WithToken or set " + EnvAPIToken,
		}
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{opts: opts, client: client}, nil
}

// Stats returns a snapshot of the client's API usage statistics.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		RequestCount: atomic.LoadInt64(&c.stats.RequestCount),
		RetryCount:   atomic.LoadInt64(&c.stats.RetryCount),
		RecordsRead:  atomic.LoadInt64(&c.stats.RecordsRead),
		BytesRead:    atomic.LoadInt64(&c.stats.BytesRead),
	}
}

// doJSON executes one API request with retries and decodes the JSON
// response into out (when out is non-nil). Retries cover 429 and 5xx
// responses with exponential backoff; 4xx responses fail immediately.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return &APIError{Op: op, URL: url, Err: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.opts.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &APIError{Op: op, URL: url, Err: ctx.Err()}
			}
			atomic.AddInt64(&c.stats.RetryCount, 1)
		}

		data, err := c.execute(ctx, op, method, url, payload)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return &APIError{Op: op, URL: url, Err: err}
			}
			return nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok {
			break
		}
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			continue
		}
		break
	}

	return lastErr
}

// execute performs a single HTTP request.
func (c *Client) execute(ctx context.Context, op, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &APIError{Op: op, URL: url, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	atomic.AddInt64(&c.stats.RequestCount, 1)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, URL: url, Err: err}
	}
	atomic.AddInt64(&c.stats.BytesRead, int64(len(data)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			URL:        url,
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	return data, nil
}
