// Package fetcher downloads partner archives over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Config controls the HTTP archive fetcher.
type Config struct {
	Timeout time.Duration
	// MaxBody bounds the archive size. Zero means 256 MiB.
	MaxBody int64
}

const defaultMaxBody = 256 << 20

// HTTP fetches archive bytes with a bounded timeout. Network-level failures
// and 5xx responses are classified as transient so the ingestor's retry
// policy can act on them; 4xx responses are terminal.
type HTTP struct {
	client *http.Client
	cfg    Config
}

// NewHTTP constructs an archive fetcher.
func NewHTTP(cfg Config) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaultMaxBody
	}
	return &HTTP{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Fetch retrieves the archive at the URL.
func (f *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build archive request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch archive: %w", ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: fetch %s timed out", ingest.ErrTransientIO, url)
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", ingest.ErrTransientIO, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: fetch %s: status %d", ingest.ErrTransientIO, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read archive body: %v", ingest.ErrTransientIO, err)
	}
	if int64(len(data)) > f.cfg.MaxBody {
		return nil, fmt.Errorf("archive at %s exceeds %d bytes", url, f.cfg.MaxBody)
	}
	return data, nil
}
