package model

import "time"

// InsightPriority orders insights from most to least urgent.
type InsightPriority string

const (
	PriorityCritical InsightPriority = "critical"
	PriorityHigh     InsightPriority = "high"
	PriorityMedium   InsightPriority = "medium"
	PriorityLow      InsightPriority = "low"
)

// Rank returns a sortable weight for the priority (lower sorts first).
func (p InsightPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Insight is one actionable recommendation derived from a completed
// site-quality report.
type Insight struct {
	ID              string          `json:"id"`
	AnalysisID      string          `json:"analysis_id"`
	MerchantID      string          `json:"merchant_id"`
	Category        string          `json:"category"`
	Type            string          `json:"type"`
	Priority        InsightPriority `json:"priority"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation"`
	EstimatedImpact int             `json:"estimated_impact"`
	Confidence      int             `json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
}
