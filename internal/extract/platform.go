package extract

import (
	"net/url"
	"strings"
)

// Platform identifies the e-commerce platform serving a site.
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformUnknown     Platform = "unknown"
)

// ClassifyPlatform identifies the platform from the URL and, when available,
// the page HTML. Pure function; the strategy selection built on it is
// deterministic and testable without any network access.
func ClassifyPlatform(targetURL, html string) Platform {
	host := ""
	if u, err := url.Parse(targetURL); err == nil {
		host = strings.ToLower(u.Host)
	}

	if strings.HasSuffix(host, ".myshopify.com") {
		return PlatformShopify
	}

	lower := strings.ToLower(html)
	if lower != "" {
		if strings.Contains(lower, "cdn.shopify.com") ||
			strings.Contains(lower, "shopify.theme") ||
			strings.Contains(lower, `name="shopify-`) {
			return PlatformShopify
		}
		if strings.Contains(lower, "wp-content/plugins/woocommerce") ||
			strings.Contains(lower, "woocommerce-page") ||
			strings.Contains(lower, `class="woocommerce`) {
			return PlatformWooCommerce
		}
		if strings.Contains(lower, "wp-content") && strings.Contains(lower, "add-to-cart") {
			return PlatformWooCommerce
		}
	}

	return PlatformUnknown
}
