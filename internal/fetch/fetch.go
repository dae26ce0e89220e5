// Package fetch provides the rate-limited HTTP client used for all
// EDGAR requests. SEC fair-access rules require an identifying
// User-Agent and cap automated clients at 10 requests per second;
// every request goes through the shared limiter, and bodies are cached
// so repeated lookups within a run don't re-hit the site.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/internal/infra"
)

// ErrTransport reports a failed document fetch. Status is set for
// non-2xx responses; Err for network, request, or read failures.
type ErrTransport struct {
	URL    string
	Status int
	Err    error
}

func (e *ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// Client fetches documents with a fixed identity, shared rate limiter,
// and a short-lived body cache.
type Client struct {
	hc        *http.Client
	userAgent string
	limiter   *infra.RateLimiter
	cache     *infra.BodyCache
}

// New builds a Client from HTTP settings.
func New(cfg config.HTTPConfig) *Client {
	return &Client{
		hc:        &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		userAgent: cfg.UserAgent,
		limiter:   infra.NewRateLimiter(cfg.RateLimit, time.Second),
		cache:     infra.NewBodyCache(time.Duration(cfg.CacheTTLMin) * time.Minute),
	}
}

// Fetch returns the body at url, serving from cache when fresh. All
// failures come back as *ErrTransport.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		log.Ctx(ctx).Debug().Str("url", url).Msg("fetch cache hit")
		return body, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ErrTransport{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ErrTransport{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &ErrTransport{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &ErrTransport{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrTransport{URL: url, Err: err}
	}

	c.cache.Set(url, body)
	log.Ctx(ctx).Debug().Str("url", url).Int("bytes", len(body)).Msg("fetched")
	return body, nil
}
