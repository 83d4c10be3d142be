package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zappabad/stockdesk/internal/config"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the trading server. It carries the one bearer header shared
// by every protected call; login, logout and restore mutate it.
type Client struct {
	cfg  config.APIConfig
	http *http.Client

	mu     sync.RWMutex
	bearer string
}

// NewHTTPClient returns an http.Client with an explicit transport. The
// default client has no timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg config.APIConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultConfig().API.Timeout
	}
	return NewClientWithHTTP(cfg, NewHTTPClient(cfg.Timeout))
}

// NewClientWithHTTP creates a Client using hc for transport.
func NewClientWithHTTP(cfg config.APIConfig, hc *http.Client) *Client {
	return &Client{cfg: cfg, http: hc}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// SetBearer attaches token to every subsequent request.
func (c *Client) SetBearer(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

// ClearBearer removes the authorization header.
func (c *Client) ClearBearer() {
	c.mu.Lock()
	c.bearer = ""
	c.mu.Unlock()
}

// Bearer returns the currently attached token, if any.
func (c *Client) Bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearer
}

// do sends one request. The header is captured when the request is built, so
// a request issued just before logout keeps the old token and is left to
// fail on the server.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.cfg.URL(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newError(resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
