package model

import "math"

// Overall score weights per dimension. Content carries the remainder so the
// weights always sum to 1.
const (
	weightSEO         = 0.30
	weightPerformance = 0.25
	weightUX          = 0.25
	weightContent     = 0.20
)

// SiteReport holds the scored site-quality signals for one analysis.
// All fields are best-effort; Degraded marks a placeholder report produced
// after the primary analysis failed.
type SiteReport struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Industry    string `json:"industry,omitempty"`
	Language    string `json:"language,omitempty"`

	SEOScore  int               `json:"seo_score"`
	SEOIssues []string          `json:"seo_issues,omitempty"`
	MetaTags  map[string]string `json:"meta_tags,omitempty"`

	PerformanceScore int   `json:"performance_score"`
	LoadTimeMs       int64 `json:"load_time_ms"`
	PageSizeBytes    int64 `json:"page_size_bytes"`

	UXScore         int  `json:"ux_score"`
	MobileOptimized bool `json:"mobile_optimized"`
	HasContactInfo  bool `json:"has_contact_info"`
	HasWhatsApp     bool `json:"has_whatsapp"`

	ContentScore int `json:"content_score"`
	WordCount    int `json:"word_count"`
	ImageCount   int `json:"image_count"`
	VideoCount   int `json:"video_count"`

	OverallScore int  `json:"overall_score"`
	Degraded     bool `json:"degraded,omitempty"`
}

// ComputeOverall recalculates the weighted overall score from the dimension
// scores and stores the rounded result.
func (r *SiteReport) ComputeOverall() {
	overall := float64(r.SEOScore)*weightSEO +
		float64(r.PerformanceScore)*weightPerformance +
		float64(r.UXScore)*weightUX +
		float64(r.ContentScore)*weightContent
	r.OverallScore = ClampScore(int(math.Round(overall)))
}

// ClampScore bounds a score to the 0-100 range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
