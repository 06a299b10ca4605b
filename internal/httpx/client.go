// Package httpx holds the outbound HTTP plumbing shared by providers:
// a tuned transport, browser-like request headers, and per-client
// request pacing so upstream rate limits never trip mid-search.
package httpx

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client pairs an http.Client with a rate limiter. Every request waits
// its turn before leaving, so callers never have to pace themselves.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a paced client allowing one request per interval with the
// given burst. The overall 15s budget means a hung upstream call
// surfaces as an error rather than stalling a search indefinitely.
func New(interval time.Duration, burst int) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Get issues a paced GET with a Chrome-like header set. The caller owns
// the response body.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	spoofChromeHeaders(req)
	return c.http.Do(req)
}

// SetTransport swaps the underlying round tripper. Tests use this to
// point requests at a local server.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

func spoofChromeHeaders(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	r.Header.Set("Accept", "application/json, text/plain, */*")
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	r.Header.Set("Connection", "keep-alive")
}
