// Package openlib talks to the OpenLibrary API: URL building, a bounded
// retrying HTTP client, payload normalization, and the aggregation
// pipeline that stitches search, work, edition and author responses into
// complete book records.
package openlib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexk49/booksanon/internal/ratelimit"
)

// Options configures the bounded client.
type Options struct {
	// MaxConcurrent caps in-flight requests across every caller sharing
	// this client, pipeline fan-out included.
	MaxConcurrent int

	// MaxRetries is the total number of attempts per fetch.
	MaxRetries int

	// RetryDelay is the fixed sleep between attempts.
	RetryDelay time.Duration

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// RequestsPerSecond paces requests against the upstream. Zero disables
	// pacing.
	RequestsPerSecond int

	// Contact is included in the User-Agent so OpenLibrary can identify us.
	Contact string
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 3
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 3 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// Client is a bounded, retrying HTTP fetcher. Transport and upstream
// failures are absorbed: once retries are exhausted, Fetch returns
// nil rather than an error, so callers treat an absent body as
// "recoverable but failed".
type Client struct {
	opts    Options
	slots   *ratelimit.Slots
	limiter *ratelimit.Limiter

	httpClient *http.Client
	clientOnce sync.Once
	closeOnce  sync.Once

	// sleep is indirected for tests.
	sleep func(time.Duration)
}

// NewClient creates a client from opts, applying defaults for zero values.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		opts:  opts,
		slots: ratelimit.NewSlots(opts.MaxConcurrent),
		sleep: time.Sleep,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = ratelimit.New("OpenLibrary", opts.RequestsPerSecond)
	}
	return c
}

// Slots exposes the shared in-flight cap so the pipeline's fan-out draws
// from the same cap as direct fetches.
func (c *Client) Slots() *ratelimit.Slots {
	return c.slots
}

// Fetch GETs url and returns the response body on HTTP 200. Any other
// status or transport error is retried after the configured delay, up to
// MaxRetries attempts total; exhaustion returns nil. Each attempt is
// logged with its outcome.
func (c *Client) Fetch(ctx context.Context, url string) []byte {
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		body, err := c.attempt(ctx, url)
		if err == nil {
			slog.Debug("fetch succeeded", "url", url, "attempt", attempt)
			return body
		}

		slog.Warn("fetch attempt failed", "url", url, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return nil
		}
		if attempt < c.opts.MaxRetries {
			c.sleep(c.opts.RetryDelay)
		}
	}

	slog.Warn("fetch failed after retries", "url", url, "attempts", c.opts.MaxRetries)
	return nil
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	if err := c.slots.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.slots.Release()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// Close releases idle connections. Safe to call more than once; only the
// first call has any effect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.httpClient != nil {
			c.httpClient.CloseIdleConnections()
		}
	})
}

func (c *Client) userAgent() string {
	if c.opts.Contact == "" {
		return "booksanon"
	}
	return "booksanon " + c.opts.Contact
}

// getHTTPClient builds the underlying client on first use.
func (c *Client) getHTTPClient() *http.Client {
	c.clientOnce.Do(func() {
		if c.httpClient == nil {
			c.httpClient = &http.Client{Timeout: c.opts.Timeout}
		}
	})
	return c.httpClient
}
