package extract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/scrape"
	"github.com/sells-group/siteintel/pkg/anthropic"
	"github.com/sells-group/siteintel/pkg/shopify"
	"github.com/sells-group/siteintel/pkg/woocommerce"
)

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Shopify mock ---

type mockShopifyClient struct {
	mock.Mock
}

func (m *mockShopifyClient) ListProducts(ctx context.Context, storeURL string) ([]shopify.Product, error) {
	args := m.Called(ctx, storeURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopify.Product), args.Error(1)
}

// --- WooCommerce mock ---

type mockWooClient struct {
	mock.Mock
}

func (m *mockWooClient) ListProducts(ctx context.Context, storeURL string) ([]woocommerce.Product, error) {
	args := m.Called(ctx, storeURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]woocommerce.Product), args.Error(1)
}

// --- Scraper stub ---

type stubScraper struct {
	content *scrape.Content
	err     error
}

func (s *stubScraper) Scrape(ctx context.Context, url string) (*scrape.Content, error) {
	return s.content, s.err
}

// --- Strategy stub ---

type stubStrategy struct {
	name     string
	supports bool
	products []model.Product
	err      error
	calls    int
}

func (s *stubStrategy) Name() string             { return s.name }
func (s *stubStrategy) Supports(p Platform) bool { return s.supports }

func (s *stubStrategy) Extract(ctx context.Context, target Target) ([]model.Product, error) {
	s.calls++
	return s.products, s.err
}
