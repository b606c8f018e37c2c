// Package source resolves stored stream URLs and fetches media from origin.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultContentType is used when the origin does not declare one.
const DefaultContentType = "video/mp4"

// Some origins refuse clients without a browser user agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ErrBadStatus is returned for non-2xx origin responses.
var ErrBadStatus = errors.New("upstream returned non-success status")

// Media is an open origin response. Callers must close Body.
type Media struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64 // -1 when unknown
}

// NewHTTPClient returns a client that bounds connection setup and the wait
// for response headers. The body itself has no deadline; films are large.
func NewHTTPClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = 30 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   8,
		},
	}
}

type Fetcher struct {
	client   *http.Client
	rewrites *RewriteTable
}

// NewFetcher wires a client and rewrite table. Nil arguments get defaults.
func NewFetcher(client *http.Client, rewrites *RewriteTable) *Fetcher {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if rewrites == nil {
		rewrites = NewRewriteTable()
	}
	return &Fetcher{client: client, rewrites: rewrites}
}

// Resolve applies the rewrite table to a stored stream URL.
func (f *Fetcher) Resolve(streamURL string) string {
	return f.rewrites.Resolve(streamURL)
}

// Fetch resolves streamURL and opens it. Any error means nothing was
// returned to stream.
func (f *Fetcher) Fetch(ctx context.Context, streamURL string) (*Media, error) {
	target := f.Resolve(streamURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch upstream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = DefaultContentType
	}
	return &Media{
		Body:          resp.Body,
		ContentType:   ct,
		ContentLength: resp.ContentLength,
	}, nil
}
