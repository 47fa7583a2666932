package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/resilience"
	"github.com/sells-group/siteintel/internal/scrape"
	"github.com/sells-group/siteintel/pkg/anthropic"
	"github.com/sells-group/siteintel/pkg/shopify"
	"github.com/sells-group/siteintel/pkg/woocommerce"
)

// platformConfidence is assigned to products sourced from a platform catalog
// API; the catalog is authoritative so only mapping ambiguity remains.
const platformConfidence = 95

// Target is the input to a product extraction strategy. HTML and Text may be
// empty when scraping failed; platform strategies work regardless because
// they have their own data source.
type Target struct {
	URL      string
	Platform Platform
	HTML     string
	Text     string
}

// ProductStrategy extracts catalog products for a class of sites. Strategies
// are tried in order; the first success with a non-empty result wins.
type ProductStrategy interface {
	Name() string
	Supports(p Platform) bool
	Extract(ctx context.Context, target Target) ([]model.Product, error)
}

// --- Shopify ---

// ShopifyStrategy pulls the catalog from the public storefront endpoint.
type ShopifyStrategy struct {
	client shopify.Client
}

// NewShopifyStrategy creates a ShopifyStrategy.
func NewShopifyStrategy(client shopify.Client) *ShopifyStrategy {
	return &ShopifyStrategy{client: client}
}

func (s *ShopifyStrategy) Name() string             { return "shopify" }
func (s *ShopifyStrategy) Supports(p Platform) bool { return p == PlatformShopify }

func (s *ShopifyStrategy) Extract(ctx context.Context, target Target) ([]model.Product, error) {
	items, err := s.client.ListProducts(ctx, target.URL)
	if err != nil {
		return nil, eris.Wrap(err, "extract: shopify catalog")
	}

	base := storeOrigin(target.URL)
	products := make([]model.Product, 0, len(items))
	for _, item := range items {
		p := model.Product{
			Name:        item.Title,
			Description: scrape.StripHTML(item.BodyHTML),
			Category:    item.ProductType,
			Confidence:  platformConfidence,
		}
		if item.Handle != "" {
			p.ProductURL = base + "/products/" + item.Handle
		}
		if len(item.Images) > 0 {
			p.ImageURL = item.Images[0].Src
		}
		if item.Tags != "" {
			for _, tag := range strings.Split(item.Tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					p.Tags = append(p.Tags, tag)
				}
			}
		}
		if len(item.Variants) > 0 {
			if price, err := strconv.ParseFloat(item.Variants[0].Price, 64); err == nil {
				p.Price = &price
			}
			for _, v := range item.Variants {
				if v.Available {
					p.InStock = true
					break
				}
			}
		}
		products = append(products, p)
	}
	return products, nil
}

// --- WooCommerce ---

// WooCommerceStrategy pulls the catalog from the Store API.
type WooCommerceStrategy struct {
	client woocommerce.Client
}

// NewWooCommerceStrategy creates a WooCommerceStrategy.
func NewWooCommerceStrategy(client woocommerce.Client) *WooCommerceStrategy {
	return &WooCommerceStrategy{client: client}
}

func (s *WooCommerceStrategy) Name() string             { return "woocommerce" }
func (s *WooCommerceStrategy) Supports(p Platform) bool { return p == PlatformWooCommerce }

func (s *WooCommerceStrategy) Extract(ctx context.Context, target Target) ([]model.Product, error) {
	items, err := s.client.ListProducts(ctx, target.URL)
	if err != nil {
		return nil, eris.Wrap(err, "extract: woocommerce catalog")
	}

	products := make([]model.Product, 0, len(items))
	for _, item := range items {
		p := model.Product{
			Name:        item.Name,
			Description: scrape.StripHTML(item.ShortDescription),
			ProductURL:  item.Permalink,
			Currency:    item.Prices.CurrencyCode,
			InStock:     item.IsInStock,
			Confidence:  platformConfidence,
		}
		if len(item.Images) > 0 {
			p.ImageURL = item.Images[0].Src
		}
		if len(item.Categories) > 0 {
			p.Category = item.Categories[0].Name
		}
		for _, tag := range item.Tags {
			if tag.Name != "" {
				p.Tags = append(p.Tags, tag.Name)
			}
		}
		if price, ok := minorUnitsToPrice(item.Prices.Price, item.Prices.CurrencyMinorUnit); ok {
			p.Price = &price
		}
		products = append(products, p)
	}
	return products, nil
}

// minorUnitsToPrice converts a Store API integer-string amount in currency
// minor units to a major-unit price.
func minorUnitsToPrice(amount string, minorUnit int) (float64, bool) {
	if amount == "" {
		return 0, false
	}
	units, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0, false
	}
	div := 1.0
	for i := 0; i < minorUnit; i++ {
		div *= 10
	}
	return float64(units) / div, true
}

// --- Generic AI fallback ---

const productPrompt = `You are a catalog analyst extracting product listings from an e-commerce page.

Page URL: %s
Page content:
%s

Extract every distinct product visible in the content. Return a valid JSON object:
{"products": [{"name": "...", "description": "...", "price": 19.99, "currency": "USD", "image_url": "", "product_url": "", "category": "", "tags": [], "in_stock": true, "confidence": 0-100}]}
Use null for unknown prices. Confidence is your 0-100 reliability estimate per product. Return {"products": []} if none are found.`

// GenericStrategy extracts products from scraped page text via the model.
// It requires content, so it cannot serve sites that both block scraping and
// run an unknown platform.
type GenericStrategy struct {
	ai          anthropic.Client
	modelID     string
	maxChars    int
	maxProducts int
	retryCfg    resilience.RetryConfig
	breaker     *resilience.Breaker
}

// NewGenericStrategy creates a GenericStrategy.
func NewGenericStrategy(ai anthropic.Client, modelID string, maxChars, maxProducts int) *GenericStrategy {
	if maxChars <= 0 {
		maxChars = 12000
	}
	if maxProducts <= 0 {
		maxProducts = 100
	}
	return &GenericStrategy{
		ai:          ai,
		modelID:     modelID,
		maxChars:    maxChars,
		maxProducts: maxProducts,
		retryCfg:    resilience.DefaultRetryConfig("extract_products"),
		breaker:     resilience.NewBreaker(resilience.DefaultBreakerConfig()),
	}
}

func (s *GenericStrategy) Name() string             { return "generic_ai" }
func (s *GenericStrategy) Supports(p Platform) bool { return true }

func (s *GenericStrategy) Extract(ctx context.Context, target Target) ([]model.Product, error) {
	if strings.TrimSpace(target.Text) == "" {
		return nil, eris.New("extract: no page content for generic extraction")
	}

	content := target.Text
	if len(content) > s.maxChars {
		content = content[:s.maxChars]
	}

	resp, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, s.retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return s.ai.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     s.modelID,
				MaxTokens: 4096,
				Messages: []anthropic.Message{
					{Role: "user", Content: fmt.Sprintf(productPrompt, target.URL, content)},
				},
			})
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: generic product extraction")
	}
	resp.Usage.LogCost(s.modelID, "extract_products")

	var parsed struct {
		Products []struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Price       *float64 `json:"price"`
			Currency    string   `json:"currency"`
			ImageURL    string   `json:"image_url"`
			ProductURL  string   `json:"product_url"`
			Category    string   `json:"category"`
			Tags        []string `json:"tags"`
			InStock     *bool    `json:"in_stock"`
			Confidence  int      `json:"confidence"`
		} `json:"products"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: parse product JSON")
	}

	var products []model.Product
	for _, raw := range parsed.Products {
		if strings.TrimSpace(raw.Name) == "" {
			continue
		}
		if len(products) >= s.maxProducts {
			zap.L().Warn("extract: product cap reached, dropping remainder",
				zap.String("url", target.URL),
				zap.Int("cap", s.maxProducts),
			)
			break
		}
		p := model.Product{
			Name:        raw.Name,
			Description: raw.Description,
			Price:       raw.Price,
			Currency:    strings.ToUpper(raw.Currency),
			ImageURL:    raw.ImageURL,
			ProductURL:  raw.ProductURL,
			Category:    raw.Category,
			Tags:        raw.Tags,
			InStock:     raw.InStock == nil || *raw.InStock,
			Confidence:  model.ClampScore(raw.Confidence),
		}
		products = append(products, p)
	}
	return products, nil
}

// storeOrigin reduces a URL to scheme://host.
func storeOrigin(raw string) string {
	if idx := strings.Index(raw, "://"); idx >= 0 {
		rest := raw[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			return raw[:idx+3] + rest[:slash]
		}
		return raw
	}
	return "https://" + raw
}
