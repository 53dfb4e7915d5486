// Package partner implements the outbound client for the partner's export
// API. The scheduler calls it at most once per UTC day; a token-bucket
// limiter additionally paces requests so a misconfigured trigger can never
// hammer the partner.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config controls the partner client.
type Config struct {
	APIURL  string
	Timeout time.Duration
	// RPS and Burst feed the token bucket guarding outbound calls. RPS <= 0
	// means unlimited.
	RPS   float64
	Burst int
}

// Client issues export requests. The partner signals acceptance with 201.
type Client struct {
	apiURL  string
	client  *http.Client
	limiter *rate.Limiter
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("partner api url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		apiURL:  cfg.APIURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// RequestExport POSTs the export request and returns the HTTP status code.
// It blocks on the rate limiter first, respecting the context.
func (c *Client) RequestExport(ctx context.Context, requestID string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(map[string]string{"request_id": requestID})
	if err != nil {
		return 0, fmt.Errorf("marshal export request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post export request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode, nil
}
