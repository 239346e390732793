// Package httputil provides a hardened HTTP client, browser-like request
// helpers, and the classification of upstream failures into the error
// taxonomy.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"anistream/internal/apperr"
)

// UserAgent is sent on every upstream request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodySize = 10 * 1024 * 1024

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// Headers are extra request headers applied on top of the browser defaults.
type Headers map[string]string

// APIHeaders returns the header set the upstream's ajax endpoints expect.
func APIHeaders(referer string) Headers {
	return Headers{
		"Accept":           "*/*",
		"Referer":          referer,
		"X-Requested-With": "XMLHttpRequest",
	}
}

// Get fetches a URL and returns the response body. Connection failures,
// timeouts, and non-2xx statuses are classified per the taxonomy: an
// upstream 404 becomes ErrNotFound, everything else ErrUpstreamUnavailable
// carrying the cause text. No retries are performed.
func Get(ctx context.Context, client *http.Client, url string, extra Headers) ([]byte, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Upstreamf("fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFoundf("upstream returned 404 for %s", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstreamf("upstream returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperr.Upstreamf("reading response from %s: %v", url, err)
	}

	return body, nil
}
