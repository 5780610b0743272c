// Package catalog implements the paginated read client for the product
// catalog service. The client normalizes failures and performs no retries;
// retrying is the caller's decision.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/smartretail/storefront/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

// Client queries the catalog's paginated product listing.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SearchResult is one page of the catalog listing. HasNext and HasPrevious
// are the only pagination signals exposed; the total page count is never
// assumed.
type SearchResult struct {
	Count       int       `json:"count"`
	Results     []Product `json:"results"`
	HasNext     bool      `json:"has_next"`
	HasPrevious bool      `json:"has_previous"`
}

// Search fetches one catalog page. An empty query returns the unfiltered
// catalog; a non-positive page is treated as page 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCatalog, "catalog client not configured")
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	if strings.TrimSpace(query) != "" {
		params.Set("q", query)
	}
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/products?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "build search request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "execute search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeCatalog,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"search request failed")
	}

	var apiResp struct {
		Count    int       `json:"count"`
		Next     *string   `json:"next"`
		Previous *string   `json:"previous"`
		Results  []Product `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "decode search response")
	}

	return &SearchResult{
		Count:       apiResp.Count,
		Results:     apiResp.Results,
		HasNext:     apiResp.Next != nil,
		HasPrevious: apiResp.Previous != nil,
	}, nil
}
