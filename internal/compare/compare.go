// Package compare positions a merchant's site-quality report against a set
// of completed competitor analyses.
package compare

import (
	"fmt"

	"github.com/sells-group/siteintel/internal/model"
)

// Dimension score gaps below this margin are considered noise.
const scoreMargin = 10

// Compare contrasts the merchant report with competitor analyses and returns
// strengths, weaknesses, and opportunities. Callers pre-filter competitors to
// completed, ownership-verified records; entries without a report are
// skipped. Slices in the result are always non-nil.
func Compare(merchant *model.SiteReport, competitors []model.Analysis) model.Comparison {
	result := model.Comparison{
		Strengths:     []string{},
		Weaknesses:    []string{},
		Opportunities: []string{},
	}
	if merchant == nil {
		return result
	}

	reports := make([]*model.SiteReport, 0, len(competitors))
	for _, c := range competitors {
		if c.Report != nil {
			reports = append(reports, c.Report)
		}
	}
	if len(reports) == 0 {
		return result
	}

	for _, dim := range dimensions() {
		avg := average(reports, dim.value)
		mine := dim.value(merchant)
		switch {
		case float64(mine) >= avg+scoreMargin:
			result.Strengths = append(result.Strengths,
				fmt.Sprintf("%s score of %d beats the competitor average of %.0f", dim.label, mine, avg))
		case float64(mine) <= avg-scoreMargin:
			result.Weaknesses = append(result.Weaknesses,
				fmt.Sprintf("%s score of %d trails the competitor average of %.0f", dim.label, mine, avg))
		}
	}

	for _, c := range capabilities() {
		if c.has(merchant) {
			continue
		}
		n := 0
		for _, r := range reports {
			if c.has(r) {
				n++
			}
		}
		// An opportunity only when the field has become table stakes.
		if n*2 > len(reports) {
			result.Opportunities = append(result.Opportunities,
				fmt.Sprintf("%d of %d competitors offer %s; adding it closes a visible gap", n, len(reports), c.label))
		}
	}

	if band := pricingBand(competitors); band != "" {
		result.Opportunities = append(result.Opportunities, band)
	}

	return result
}

type dimension struct {
	label string
	value func(*model.SiteReport) int
}

func dimensions() []dimension {
	return []dimension{
		{"Overall", func(r *model.SiteReport) int { return r.OverallScore }},
		{"SEO", func(r *model.SiteReport) int { return r.SEOScore }},
		{"Performance", func(r *model.SiteReport) int { return r.PerformanceScore }},
		{"User experience", func(r *model.SiteReport) int { return r.UXScore }},
		{"Content", func(r *model.SiteReport) int { return r.ContentScore }},
	}
}

type capability struct {
	label string
	has   func(*model.SiteReport) bool
}

func capabilities() []capability {
	return []capability{
		{"a mobile-optimized experience", func(r *model.SiteReport) bool { return r.MobileOptimized }},
		{"visible contact information", func(r *model.SiteReport) bool { return r.HasContactInfo }},
		{"a WhatsApp channel", func(r *model.SiteReport) bool { return r.HasWhatsApp }},
	}
}

func average(reports []*model.SiteReport, value func(*model.SiteReport) int) float64 {
	sum := 0
	for _, r := range reports {
		sum += value(r)
	}
	return float64(sum) / float64(len(reports))
}

// pricingBand summarizes competitor catalog pricing when any competitor has
// priced products.
func pricingBand(competitors []model.Analysis) string {
	var (
		sum   float64
		count int
		min   float64
		max   float64
	)
	for _, c := range competitors {
		ps := c.Pricing
		if ps == nil || ps.ProductCount == 0 {
			continue
		}
		sum += ps.AvgPrice * float64(ps.ProductCount)
		count += ps.ProductCount
		if min == 0 || ps.MinPrice < min {
			min = ps.MinPrice
		}
		if ps.MaxPrice > max {
			max = ps.MaxPrice
		}
	}
	if count == 0 {
		return ""
	}
	avg := sum / float64(count)
	return fmt.Sprintf("Competitor catalog prices span %.2f to %.2f with an average of %.2f; position pricing and promotions against this band", min, max, avg)
}
