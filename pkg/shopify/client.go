// Package shopify provides a client for the public Shopify storefront
// catalog endpoint.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Shopify storefront operations used for product
// extraction.
type Client interface {
	// ListProducts fetches the public product catalog of a storefront.
	ListProducts(ctx context.Context, storeURL string) ([]Product, error)
}

// Product is a single storefront catalog entry.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	BodyHTML    string    `json:"body_html"`
	ProductType string    `json:"product_type"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

// Image is a product image.
type Image struct {
	Src string `json:"src"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

// Option configures the Shopify client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageLimit sets the per-request product limit (max 250).
func WithPageLimit(limit int) Option {
	return func(c *httpClient) {
		if limit > 0 && limit <= 250 {
			c.pageLimit = limit
		}
	}
}

type httpClient struct {
	http      *http.Client
	pageLimit int
}

// NewClient creates a Shopify storefront client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		pageLimit: 250,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListProducts(ctx context.Context, storeURL string) ([]Product, error) {
	base, err := normalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}
	reqURL := fmt.Sprintf("%s/products.json?limit=%d", base, c.pageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "shopify: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := retryDo(ctx, c.http, req)
	if err != nil {
		return nil, eris.Wrap(err, "shopify: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("shopify: unexpected status %d", statusCode)
	}

	var result productsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "shopify: unmarshal response")
	}
	return result.Products, nil
}

// normalizeStoreURL reduces a page URL to the storefront origin.
func normalizeStoreURL(storeURL string) (string, error) {
	u, err := url.Parse(storeURL)
	if err != nil || u.Host == "" {
		return "", eris.Errorf("shopify: invalid store url: %s", storeURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

// retryableStatusCode returns true if the HTTP status code should trigger a
// retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503).
func retryDo(ctx context.Context, hc *http.Client, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := hc.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}
