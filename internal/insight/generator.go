package insight

import (
	"sort"
	"strings"

	"github.com/sells-group/siteintel/internal/model"
)

// Generator evaluates a rule set against site-quality reports.
type Generator struct {
	rules []Rule
}

// NewGenerator creates a Generator. Passing nil rules uses DefaultRules.
func NewGenerator(rules []Rule) *Generator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Generator{rules: rules}
}

// Generate returns recommendations for the report, ordered by priority
// (critical first) and then by estimated impact. It is a pure function of the
// report and produces nothing for a nil one.
func (g *Generator) Generate(report *model.SiteReport) []model.Insight {
	if report == nil {
		return nil
	}

	var out []model.Insight
	for _, rule := range g.rules {
		v := metricValue(report, rule.Metric)
		fired := (rule.Below > 0 && v < rule.Below) || (rule.Above > 0 && v > rule.Above)
		if !fired {
			continue
		}

		ins := model.Insight{
			Category:        rule.Category,
			Type:            rule.Type,
			Priority:        rule.Priority,
			Title:           rule.Title,
			Description:     rule.Description,
			Recommendation:  rule.Recommendation,
			EstimatedImpact: rule.EstimatedImpact,
			Confidence:      rule.Confidence,
		}
		// Fold model-reported SEO issues into the matching SEO insight so
		// the recommendation names the concrete problems.
		if rule.Category == "seo" && len(report.SEOIssues) > 0 {
			ins.Description += " Detected issues: " + strings.Join(report.SEOIssues, "; ") + "."
		}
		out = append(out, ins)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		return out[i].EstimatedImpact > out[j].EstimatedImpact
	})
	return out
}

// metricValue maps a metric name to its report value. Booleans map to 0/1.
func metricValue(r *model.SiteReport, metric string) float64 {
	switch metric {
	case MetricSEOScore:
		return float64(r.SEOScore)
	case MetricPerformanceScore:
		return float64(r.PerformanceScore)
	case MetricUXScore:
		return float64(r.UXScore)
	case MetricContentScore:
		return float64(r.ContentScore)
	case MetricLoadTimeMs:
		return float64(r.LoadTimeMs)
	case MetricWordCount:
		return float64(r.WordCount)
	case MetricMobileOptimized:
		return boolMetric(r.MobileOptimized)
	case MetricContactInfo:
		return boolMetric(r.HasContactInfo)
	case MetricWhatsApp:
		return boolMetric(r.HasWhatsApp)
	default:
		return 0
	}
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
