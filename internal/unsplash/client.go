// Package unsplash implements domain.SearchClient for the Unsplash API.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/shutter/internal/domain"
)

const (
	// DefaultBaseURL is the public Unsplash API root
	DefaultBaseURL = "https://api.unsplash.com"

	searchPhotosPath = "/search/photos"

	pageKey     = "page"
	clientIDKey = "client_id"
	queryKey    = "query"
	perPageKey  = "per_page"
)

// Client fetches search result pages. It holds no per-search state.
type Client struct {
	baseURL   string
	clientID  string
	perPage   int
	transport domain.Transport
	logger    *slog.Logger
}

// NewClient creates a new Unsplash API client. perPage <= 0 lets the API
// choose its default page size.
func NewClient(baseURL, clientID string, perPage int, transport domain.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		clientID:  clientID,
		perPage:   perPage,
		transport: transport,
		logger:    logger,
	}
}

// Search returns the zero-based pageIndex of the results for term.
// The API numbers pages from 1; the translation happens here only.
func (c *Client) Search(ctx context.Context, term string, pageIndex int) (*domain.Page, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("invalid page index %d", pageIndex)
	}

	reqURL := c.searchURL(term, pageIndex)
	c.logger.Debug("requesting page", "page", pageIndex+1, "query", term)

	body, err := c.transport.Get(ctx, reqURL)
	if err != nil {
		c.logger.Error("search request failed", "error", err, "page", pageIndex+1, "query", term)
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: failed to parse search response: %w", domain.ErrDecode, err)
	}

	return MapPage(&resp, pageIndex), nil
}

func (c *Client) searchURL(term string, pageIndex int) string {
	query := url.Values{}
	query.Set(pageKey, strconv.Itoa(pageIndex+1))
	query.Set(clientIDKey, c.clientID)
	query.Set(queryKey, term)
	if c.perPage > 0 {
		query.Set(perPageKey, strconv.Itoa(c.perPage))
	}
	return fmt.Sprintf("%s%s?%s", c.baseURL, searchPhotosPath, query.Encode())
}
