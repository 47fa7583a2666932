package woocommerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{
		"id": 10,
		"name": "Espresso Beans",
		"short_description": "<p>Dark roast</p>",
		"permalink": "https://shop.example.com/product/espresso-beans",
		"is_in_stock": true,
		"prices": {"price": "2499", "currency_code": "USD", "currency_minor_unit": 2},
		"images": [{"src": "https://shop.example.com/beans.jpg"}],
		"categories": [{"name": "Coffee"}],
		"tags": [{"name": "roast"}]
	},
	{
		"id": 11,
		"name": "Mug",
		"is_in_stock": false,
		"prices": {"price": "1200", "currency_code": "EUR", "currency_minor_unit": 2}
	}
]`

func TestListProducts(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()), WithPerPage(25))
	products, err := c.ListProducts(context.Background(), srv.URL+"/shop/page/2")
	require.NoError(t, err)

	assert.Equal(t, "/wp-json/wc/store/v1/products", gotPath)
	assert.Equal(t, "per_page=25", gotQuery)

	require.Len(t, products, 2)
	assert.Equal(t, "Espresso Beans", products[0].Name)
	assert.Equal(t, "2499", products[0].Prices.Price)
	assert.Equal(t, "USD", products[0].Prices.CurrencyCode)
	assert.Equal(t, 2, products[0].Prices.CurrencyMinorUnit)
	assert.True(t, products[0].IsInStock)
	require.Len(t, products[0].Categories, 1)
	assert.Equal(t, "Coffee", products[0].Categories[0].Name)
	assert.False(t, products[1].IsInStock)
}

func TestListProductsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()))
	_, err := c.ListProducts(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestListProductsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()))
	_, err := c.ListProducts(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestListProductsInvalidURL(t *testing.T) {
	c := NewClient()
	_, err := c.ListProducts(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store url")
}

func TestWithPerPageBounds(t *testing.T) {
	c := NewClient(WithPerPage(1000)).(*httpClient)
	assert.Equal(t, 100, c.perPage)

	c = NewClient(WithPerPage(10)).(*httpClient)
	assert.Equal(t, 10, c.perPage)
}
