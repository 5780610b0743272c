// Package optimize implements the client for the cart-optimization oracle.
// The oracle proposes substitute products minimizing a weighted price/CO2
// cost; this client only carries the request/response contract and never
// recomputes the oracle's aggregates.
package optimize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/smartretail/storefront/pkg/errors"
)

const errorBodyReadLimit int64 = 4096

// LineItem references a cart line by product id and quantity.
type LineItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// Weights are the caller's independent price/CO2 priorities, each in [0,1].
// They are not required to sum to 1.
type Weights struct {
	Price float64 `json:"price"`
	CO2   float64 `json:"co2"`
}

// DefaultWeights weighs price and CO2 equally.
func DefaultWeights() Weights {
	return Weights{Price: 0.5, CO2: 0.5}
}

func (w Weights) validate() error {
	if w.Price < 0 || w.Price > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price weight must be between 0 and 1")
	}
	if w.CO2 < 0 || w.CO2 > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "co2 weight must be between 0 and 1")
	}
	return nil
}

// SuggestionLine is one proposed line; ChosenID may differ from RequestedID
// when the oracle substituted a product.
type SuggestionLine struct {
	RequestedID int64           `json:"requested_id"`
	ChosenID    int64           `json:"chosen_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCO2Kg   float64         `json:"unit_co2_kg"`
}

// Suggestion is the oracle's substitute cart. The totals are computed by the
// oracle and displayed as received.
type Suggestion struct {
	Lines      []SuggestionLine `json:"suggested_cart"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	TotalCO2Kg float64          `json:"total_co2_kg"`
}

// Client submits carts to the optimization oracle.
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

// NewClient builds an optimization client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("optimizer base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Optimize submits the items and weights and returns a fresh suggestion.
// Calling it on an empty item list is a caller error and performs no network
// I/O. The call is safe to repeat with the same inputs; no retry happens
// internally. Non-2xx responses fail with the server's diagnostic verbatim.
func (c *Client) Optimize(ctx context.Context, items []LineItem, weights Weights) (*Suggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOptimization, "optimization client not configured")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot optimize an empty cart")
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantities must be positive").
				WithDetails(map[string]any{"id": item.ID})
		}
	}
	if err := weights.validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(struct {
		Items   []LineItem `json:"items"`
		Weights Weights    `json:"weights"`
	}{Items: items, Weights: weights})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOptimization, err, "marshal optimize request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/optimize", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOptimization, err, "build optimize request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOptimization, err, "execute optimize request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The server's diagnostic is surfaced verbatim, not reformatted.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.New(pkgerrors.CodeOptimization, strings.TrimSpace(string(msg))).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOptimization, err, "decode optimize response")
	}
	return &suggestion, nil
}
