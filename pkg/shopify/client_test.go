package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
	"products": [
		{
			"id": 1,
			"title": "Trail Tent",
			"handle": "trail-tent",
			"body_html": "<p>Two person tent</p>",
			"product_type": "camping",
			"tags": "tent, outdoor",
			"variants": [
				{"id": 11, "title": "Default", "price": "199.99", "available": true}
			],
			"images": [{"src": "https://cdn.example.com/tent.jpg"}]
		},
		{
			"id": 2,
			"title": "Camp Stove",
			"handle": "camp-stove",
			"variants": [
				{"id": 21, "title": "Default", "price": "49.50", "available": false}
			]
		}
	]
}`

func TestListProducts(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()), WithPageLimit(50))
	products, err := c.ListProducts(context.Background(), srv.URL+"/collections/all")
	require.NoError(t, err)

	assert.Equal(t, "/products.json", gotPath)
	assert.Equal(t, "limit=50", gotQuery)

	require.Len(t, products, 2)
	assert.Equal(t, "Trail Tent", products[0].Title)
	assert.Equal(t, "trail-tent", products[0].Handle)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, "199.99", products[0].Variants[0].Price)
	assert.True(t, products[0].Variants[0].Available)
	assert.Equal(t, "camp-stove", products[1].Handle)
}

func TestListProductsRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()))
	products, err := c.ListProducts(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListProductsNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()))
	_, err := c.ListProducts(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestListProductsContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(WithHTTPClient(srv.Client()))
	_, err := c.ListProducts(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListProductsInvalidURL(t *testing.T) {
	c := NewClient()
	_, err := c.ListProducts(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store url")
}

func TestNormalizeStoreURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://shop.example.com/collections/all?page=2", want: "https://shop.example.com"},
		{in: "http://shop.example.com", want: "http://shop.example.com"},
		{in: "//shop.example.com/products", want: "https://shop.example.com"},
		{in: "/relative/path", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := normalizeStoreURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRetryableStatusCode(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503} {
		assert.True(t, retryableStatusCode(code), code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404} {
		assert.False(t, retryableStatusCode(code), code)
	}
}

func TestWithPageLimitBounds(t *testing.T) {
	c := NewClient(WithPageLimit(500)).(*httpClient)
	assert.Equal(t, 250, c.pageLimit)

	c = NewClient(WithPageLimit(0)).(*httpClient)
	assert.Equal(t, 250, c.pageLimit)
}
