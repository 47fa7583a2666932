package model

import "time"

// Field length bounds applied before persistence. The extractor can
// over-generate; anything longer is cut rather than rejected.
const (
	maxNameLen        = 200
	maxDescriptionLen = 2000
	maxURLLen         = 2048
	maxCategoryLen    = 100
	maxTagLen         = 50
	maxTags           = 20
	maxCurrencyLen    = 3
)

// Product is a single catalog item extracted during product extraction.
// Immutable once written; Confidence is the extractor's self-assessed
// reliability on a 0-100 scale.
type Product struct {
	ID          string   `json:"id"`
	AnalysisID  string   `json:"analysis_id"`
	MerchantID  string   `json:"merchant_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	ProductURL  string   `json:"product_url,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	InStock     bool     `json:"in_stock"`
	Confidence  int      `json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
}

// Truncate bounds every string field to its persistence limit and clamps the
// confidence score.
func (p *Product) Truncate() {
	p.Name = cut(p.Name, maxNameLen)
	p.Description = cut(p.Description, maxDescriptionLen)
	p.ImageURL = cut(p.ImageURL, maxURLLen)
	p.ProductURL = cut(p.ProductURL, maxURLLen)
	p.Category = cut(p.Category, maxCategoryLen)
	p.Currency = cut(p.Currency, maxCurrencyLen)
	if len(p.Tags) > maxTags {
		p.Tags = p.Tags[:maxTags]
	}
	for i, tag := range p.Tags {
		p.Tags[i] = cut(tag, maxTagLen)
	}
	p.Confidence = ClampScore(p.Confidence)
}

func cut(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
