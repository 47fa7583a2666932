package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPlatform(t *testing.T) {
	tests := []struct {
		name string
		url  string
		html string
		want Platform
	}{
		{"myshopify host", "https://acme.myshopify.com", "", PlatformShopify},
		{"shopify cdn in html", "https://acme.com", `<img src="https://cdn.shopify.com/s/files/1/x.jpg">`, PlatformShopify},
		{"shopify meta", "https://acme.com", `<meta name="shopify-digital-wallet" content="x">`, PlatformShopify},
		{"woocommerce plugin path", "https://shop.example.com", `<link href="/wp-content/plugins/woocommerce/assets/css/a.css">`, PlatformWooCommerce},
		{"woocommerce body class", "https://shop.example.com", `<body class="woocommerce-page">`, PlatformWooCommerce},
		{"wordpress with cart", "https://shop.example.com", `<script src="/wp-content/x.js"></script><a href="?add-to-cart=1">Buy</a>`, PlatformWooCommerce},
		{"plain site", "https://example.com", "<html><body>hello</body></html>", PlatformUnknown},
		{"no html", "https://example.com", "", PlatformUnknown},
		{"unparseable url", "://bad", "", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPlatform(tt.url, tt.html))
		})
	}
}
