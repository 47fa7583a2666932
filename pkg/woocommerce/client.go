// Package woocommerce provides a client for the WooCommerce Store API
// public catalog endpoints.
package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the WooCommerce Store API operations used for product
// extraction.
type Client interface {
	// ListProducts fetches the public product catalog of a store.
	ListProducts(ctx context.Context, storeURL string) ([]Product, error)
}

// Product is a single Store API catalog entry.
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	ShortDescription string     `json:"short_description"`
	Permalink        string     `json:"permalink"`
	IsInStock        bool       `json:"is_in_stock"`
	Prices           Prices     `json:"prices"`
	Images           []Image    `json:"images"`
	Categories       []Category `json:"categories"`
	Tags             []Category `json:"tags"`
}

// Prices holds the Store API price block. Amounts are integer strings in
// currency minor units.
type Prices struct {
	Price             string `json:"price"`
	CurrencyCode      string `json:"currency_code"`
	CurrencyMinorUnit int    `json:"currency_minor_unit"`
}

// Image is a product image.
type Image struct {
	Src string `json:"src"`
}

// Category is a named taxonomy term.
type Category struct {
	Name string `json:"name"`
}

// Option configures the WooCommerce client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPerPage sets the per-request product count (max 100).
func WithPerPage(n int) Option {
	return func(c *httpClient) {
		if n > 0 && n <= 100 {
			c.perPage = n
		}
	}
}

type httpClient struct {
	http    *http.Client
	perPage int
}

// NewClient creates a WooCommerce Store API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		perPage: 100,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListProducts(ctx context.Context, storeURL string) ([]Product, error) {
	u, err := url.Parse(storeURL)
	if err != nil || u.Host == "" {
		return nil, eris.Errorf("woocommerce: invalid store url: %s", storeURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	reqURL := fmt.Sprintf("%s://%s/wp-json/wc/store/v1/products?per_page=%d", scheme, u.Host, c.perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "woocommerce: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "woocommerce: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "woocommerce: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("woocommerce: unexpected status %d", resp.StatusCode)
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, eris.Wrap(err, "woocommerce: unmarshal response")
	}
	return products, nil
}
