package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Timeout for HTTP requests
const requestTimeout = 20 * time.Second

// Default User-Agent header for feed and image requests
const defaultUserAgent = "FeedHaven/1.0"

// FetchError is returned when a feed body or image could not be retrieved,
// either because of a transport failure or a non-success status code.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches feed bodies and image bytes over HTTP. All requests carry
// the configured User-Agent and honor context cancellation.
type Client struct {
	hc        *http.Client
	userAgent string
}

// NewClient creates a fetch client. Zero values fall back to the defaults.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = requestTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchText requests the given URI and returns the response body as a string
func (c *Client) FetchText(ctx context.Context, uri string) (string, error) {
	body, err := c.fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchBytes requests the given URI and returns the raw response body
func (c *Client) FetchBytes(ctx context.Context, uri string) ([]byte, error) {
	return c.fetch(ctx, uri)
}

func (c *Client) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{URL: uri, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &FetchError{URL: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: uri, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: uri, Err: err}
	}
	return body, nil
}
