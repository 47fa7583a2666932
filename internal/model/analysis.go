package model

import "time"

// AnalysisStatus represents the current state of an analysis run.
type AnalysisStatus string

const (
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisKind distinguishes a merchant's own site from a competitor target.
type AnalysisKind string

const (
	KindMerchant   AnalysisKind = "merchant"
	KindCompetitor AnalysisKind = "competitor"
)

// Analysis is one full pipeline run against a single URL. Competitor targets
// carry a name and, after product extraction, derived pricing aggregates.
type Analysis struct {
	ID             string         `json:"id"`
	MerchantID     string         `json:"merchant_id"`
	Kind           AnalysisKind   `json:"kind"`
	URL            string         `json:"url"`
	CompetitorName string         `json:"competitor_name,omitempty"`
	Status         AnalysisStatus `json:"status"`
	Report         *SiteReport    `json:"report,omitempty"`
	Pricing        *PricingStats  `json:"pricing,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PricingStats aggregates product prices for a competitor analysis.
// All fields are explicit zeros when no priced products were extracted;
// min/max are never left as sentinel values.
type PricingStats struct {
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	ProductCount int     `json:"product_count"`
}

// ComputePricingStats derives pricing aggregates from a product batch,
// counting only products with a non-nil price.
func ComputePricingStats(products []Product) PricingStats {
	var stats PricingStats
	var sum float64
	for _, p := range products {
		if p.Price == nil {
			continue
		}
		price := *p.Price
		if stats.ProductCount == 0 {
			stats.MinPrice = price
			stats.MaxPrice = price
		} else {
			if price < stats.MinPrice {
				stats.MinPrice = price
			}
			if price > stats.MaxPrice {
				stats.MaxPrice = price
			}
		}
		sum += price
		stats.ProductCount++
	}
	if stats.ProductCount > 0 {
		stats.AvgPrice = sum / float64(stats.ProductCount)
	}
	return stats
}

// Comparison holds the outcome of comparing a merchant analysis against
// completed competitor analyses.
type Comparison struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
}
