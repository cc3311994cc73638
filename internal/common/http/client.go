// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

const userAgent = "servicehub-review-engine/1.0"

// Client is a thin net/http wrapper that stamps default headers on every request.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: http.Header{"User-Agent": []string{userAgent}},
	}
}

// WithHeader returns a copy of the client that also sends key: value.
func (c *Client) WithHeader(key, value string) *Client {
	h := c.headers.Clone()
	h.Set(key, value)
	return &Client{httpClient: c.httpClient, headers: h}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for key, values := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}
