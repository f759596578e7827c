// Package client talks to the remote crawler service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	healthPath = "/health"
	crawlPath  = "/crawl"
)

// Request is the submission payload for a single URL. Field names are fixed
// by the crawler API.
type Request struct {
	URL        string `json:"url"`
	MaxPages   int    `json:"max_pages"`
	SameDomain bool   `json:"same_domain"`
	UseBrowser bool   `json:"use_browser"`
}

// Client submits crawl requests to a crawler service instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the service at baseURL. The timeout bounds each
// submission round-trip.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes the service once. Anything other than a 200 response, or any
// transport error, means the service is not ready to accept submissions.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crawler unreachable at %s (is the spider running?): %w", c.baseURL, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("crawler not healthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Submit posts one crawl request. Only a 200 response counts as accepted.
func (c *Client) Submit(ctx context.Context, r Request) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode crawl request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+crawlPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crawl request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit %s: %w", r.URL, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit %s: HTTP %d", r.URL, resp.StatusCode)
	}
	return nil
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
