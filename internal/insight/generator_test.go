package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteintel/internal/model"
)

// healthyReport fires no default rules.
func healthyReport() *model.SiteReport {
	return &model.SiteReport{
		SEOScore:         85,
		PerformanceScore: 90,
		UXScore:          80,
		ContentScore:     75,
		LoadTimeMs:       900,
		WordCount:        1200,
		MobileOptimized:  true,
		HasContactInfo:   true,
		HasWhatsApp:      true,
	}
}

func TestGenerate_HealthySite(t *testing.T) {
	g := NewGenerator(nil)
	assert.Empty(t, g.Generate(healthyReport()))
}

func TestGenerate_NilReport(t *testing.T) {
	g := NewGenerator(nil)
	assert.Nil(t, g.Generate(nil))
}

func TestGenerate_FiresBelowRules(t *testing.T) {
	report := healthyReport()
	report.SEOScore = 25 // below both the critical (30) and weak (60) thresholds

	g := NewGenerator(nil)
	insights := g.Generate(report)

	require.Len(t, insights, 2)
	assert.Equal(t, model.PriorityCritical, insights[0].Priority)
	assert.Equal(t, model.PriorityHigh, insights[1].Priority)
	assert.Equal(t, "seo", insights[0].Category)
}

func TestGenerate_FiresAboveRules(t *testing.T) {
	report := healthyReport()
	report.LoadTimeMs = 9000

	g := NewGenerator(nil)
	insights := g.Generate(report)

	require.Len(t, insights, 1)
	assert.Equal(t, "performance", insights[0].Category)
	assert.Equal(t, model.PriorityHigh, insights[0].Priority)
}

func TestGenerate_BooleanMetrics(t *testing.T) {
	report := healthyReport()
	report.MobileOptimized = false
	report.HasWhatsApp = false

	g := NewGenerator(nil)
	insights := g.Generate(report)

	require.Len(t, insights, 2)
	// Critical mobile rule sorts before the low-priority WhatsApp one.
	assert.Equal(t, model.PriorityCritical, insights[0].Priority)
	assert.Equal(t, model.PriorityLow, insights[1].Priority)
}

func TestGenerate_SortedByPriorityThenImpact(t *testing.T) {
	report := &model.SiteReport{
		SEOScore:         10,
		PerformanceScore: 10,
		UXScore:          10,
		ContentScore:     10,
		WordCount:        10,
		LoadTimeMs:       10000,
	}

	g := NewGenerator(nil)
	insights := g.Generate(report)
	require.NotEmpty(t, insights)

	for i := 1; i < len(insights); i++ {
		prev, cur := insights[i-1], insights[i]
		if prev.Priority.Rank() == cur.Priority.Rank() {
			assert.GreaterOrEqual(t, prev.EstimatedImpact, cur.EstimatedImpact)
		} else {
			assert.Less(t, prev.Priority.Rank(), cur.Priority.Rank())
		}
	}
}

func TestGenerate_FoldsSEOIssues(t *testing.T) {
	report := healthyReport()
	report.SEOScore = 50
	report.SEOIssues = []string{"missing meta description", "duplicate titles"}

	g := NewGenerator(nil)
	insights := g.Generate(report)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Description, "missing meta description; duplicate titles")
}

func TestGenerate_CustomRules(t *testing.T) {
	rules := []Rule{
		{
			Metric:          MetricWordCount,
			Below:           500,
			Category:        "content",
			Type:            "expand",
			Priority:        model.PriorityMedium,
			Title:           "Thin copy",
			EstimatedImpact: 40,
			Confidence:      60,
		},
	}
	report := healthyReport()
	report.WordCount = 100

	g := NewGenerator(rules)
	insights := g.Generate(report)

	require.Len(t, insights, 1)
	assert.Equal(t, "Thin copy", insights[0].Title)
	assert.Equal(t, 40, insights[0].EstimatedImpact)
}
