// Package transport provides the network I/O used by the search client and
// the image cache.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/shutter/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Shutter/1.0"
)

// HTTP implements domain.Transport over net/http
type HTTP struct {
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
}

// Option configures an HTTP transport
type Option func(*HTTP)

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) {
		if d > 0 {
			t.httpClient.Timeout = d
		}
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(t *HTTP) {
		t.headers.Set(key, value)
	}
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.httpClient = c
		}
	}
}

// NewHTTP creates a new HTTP transport
func NewHTTP(logger *slog.Logger, opts ...Option) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	t := &HTTP{
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    make(http.Header),
		logger:     logger,
	}
	t.headers.Set("User-Agent", userAgent)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get performs a GET request and returns the response body
func (t *HTTP) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrTransport, err)
	}
	for key, values := range t.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	t.logger.Debug("http request", "url", redact(req))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("http request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Error("http request error", "status", resp.StatusCode, "bodyLen", len(body))
		return nil, &domain.StatusError{Code: resp.StatusCode, URL: redact(req)}
	}

	return body, nil
}

// redact strips the client credential from logged URLs
func redact(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("client_id") {
		q.Set("client_id", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
