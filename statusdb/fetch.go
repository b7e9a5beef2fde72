// SPDX-License-Identifier: MIT
// Copyright (c) 2026 ModSentry
// Source: github.com/modsentry/dbpf

package statusdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxTableBytes bounds a fetched table body against hostile hosts.
const maxTableBytes = 8 << 20

// DefaultFetchTimeout bounds one table fetch end to end.
const DefaultFetchTimeout = 30 * time.Second

// ErrFetchStatus means the table host answered with a non-OK status code.
var ErrFetchStatus = errors.New("unexpected status table response")

// ClientOptions configures table fetching.
type ClientOptions struct {
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client `json:"-" yaml:"-"`
	// UserAgent is sent with every fetch.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// Timeout bounds one fetch; applied when HTTPClient is not overridden.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// applyDefaults fills zero-valued client options with defaults.
func (opts *ClientOptions) applyDefaults() {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	if opts.UserAgent == "" {
		opts.UserAgent = "modsentry-modscan/1.0"
	}
}

// Client fetches the remote status table.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a Client from options; the zero options value is usable.
func NewClient(opts ClientOptions) *Client {
	opts.applyDefaults()
	return &Client{http: opts.HTTPClient, userAgent: opts.UserAgent}
}

// Fetch downloads and parses the table at url. The raw body is returned
// alongside the parsed table so callers can persist it to a cache.
func (c *Client) Fetch(ctx context.Context, url string) (*Table, []byte, error) {
	raw, err := c.FetchRaw(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	t, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("parse status table: %w", err)
	}

	return t, raw, nil
}

// FetchRaw downloads the raw table body at url.
func (c *Client) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build table request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status table: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes))
	if err != nil {
		return nil, fmt.Errorf("read status table: %w", err)
	}

	return raw, nil
}
