// Package feed fetches spot prices and pool fee yields from the exchange's
// public HTTP API.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"raydium-farm-watch/internal/catalog"
)

const (
	pricePath = "/coin/price"
	pairsPath = "/pairs"
)

// Client queries the price and pairs endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New returns a feed client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("feed request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read feed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed %s: unexpected status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal feed response %s: %w", path, err)
	}
	return nil
}

// Prices returns the symbol to spot price mapping.
func (c *Client) Prices(ctx context.Context) (map[string]float64, error) {
	var prices map[string]float64
	if err := c.get(ctx, pricePath, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

type pairEntry struct {
	Name string   `json:"name"`
	APY  *float64 `json:"apy"`
}

// PoolFeeAPR returns trading-fee APR per pool display symbol. Pair names are
// feed-side pool keys and pass through the catalog's display-symbol mapping;
// unknown pairs and pairs without a published yield are dropped. The feed
// publishes APY in percent, reported here as a fraction.
func (c *Client) PoolFeeAPR(ctx context.Context, cat *catalog.Catalog) (map[string]float64, error) {
	var pairs []pairEntry
	if err := c.get(ctx, pairsPath, &pairs); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		symbol, ok := cat.DisplaySymbol(p.Name)
		if !ok {
			continue
		}
		if p.APY == nil {
			continue
		}
		out[symbol] = *p.APY / 100
	}
	return out, nil
}
