// Package insight derives prioritized recommendations from a site-quality
// report using a declarative rule set.
package insight

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/siteintel/internal/model"
)

// Rule describes one conditional recommendation. A rule fires when the named
// report metric falls below `below` or exceeds `above` (whichever is set);
// boolean metrics are treated as 0 or 1, so `below: 1` means "fires when
// absent".
type Rule struct {
	Metric          string                `yaml:"metric"`
	Below           float64               `yaml:"below,omitempty"`
	Above           float64               `yaml:"above,omitempty"`
	Category        string                `yaml:"category"`
	Type            string                `yaml:"type"`
	Priority        model.InsightPriority `yaml:"priority"`
	Title           string                `yaml:"title"`
	Description     string                `yaml:"description"`
	Recommendation  string                `yaml:"recommendation"`
	EstimatedImpact int                   `yaml:"estimated_impact"`
	Confidence      int                   `yaml:"confidence"`
}

// Metric names understood by the rule engine.
const (
	MetricSEOScore         = "seo_score"
	MetricPerformanceScore = "performance_score"
	MetricUXScore          = "ux_score"
	MetricContentScore     = "content_score"
	MetricLoadTimeMs       = "load_time_ms"
	MetricWordCount        = "word_count"
	MetricMobileOptimized  = "mobile_optimized"
	MetricContactInfo      = "contact_info"
	MetricWhatsApp         = "whatsapp"
)

// DefaultRules returns the built-in rule set. Rules cover search optimization,
// performance, user experience, mobile readiness, contact channels, and
// content depth.
func DefaultRules() []Rule {
	return []Rule{
		{
			Metric:          MetricSEOScore,
			Below:           30,
			Category:        "seo",
			Type:            "seo_critical",
			Priority:        model.PriorityCritical,
			Title:           "Site is nearly invisible to search engines",
			Description:     "The site scores very poorly on search optimization, which means most potential customers searching for these products will never find it.",
			Recommendation:  "Add descriptive page titles and meta descriptions, a single clear H1 per page, and descriptive alt text on product images.",
			EstimatedImpact: 90,
			Confidence:      85,
		},
		{
			Metric:          MetricSEOScore,
			Below:           60,
			Category:        "seo",
			Type:            "seo_weak",
			Priority:        model.PriorityHigh,
			Title:           "Search visibility is below average",
			Description:     "Several on-page SEO fundamentals are missing or incomplete, limiting organic traffic.",
			Recommendation:  "Review page titles, meta descriptions, and heading structure; fix the specific issues flagged in the report.",
			EstimatedImpact: 65,
			Confidence:      80,
		},
		{
			Metric:          MetricPerformanceScore,
			Below:           40,
			Category:        "performance",
			Type:            "performance_slow",
			Priority:        model.PriorityCritical,
			Title:           "Pages load too slowly",
			Description:     "Slow pages drive visitors away before they see any products; load time directly affects conversion and search ranking.",
			Recommendation:  "Compress and lazy-load images, enable caching, and remove unused scripts to bring load time under 3 seconds.",
			EstimatedImpact: 85,
			Confidence:      90,
		},
		{
			Metric:          MetricPerformanceScore,
			Below:           70,
			Category:        "performance",
			Type:            "performance_heavy",
			Priority:        model.PriorityMedium,
			Title:           "Page weight can be reduced",
			Description:     "Pages are heavier than they need to be, slowing the experience on mobile connections.",
			Recommendation:  "Serve images in modern formats and defer non-critical scripts.",
			EstimatedImpact: 45,
			Confidence:      75,
		},
		{
			Metric:          MetricLoadTimeMs,
			Above:           5000,
			Category:        "performance",
			Type:            "load_time_excessive",
			Priority:        model.PriorityHigh,
			Title:           "Landing page takes over five seconds to load",
			Description:     "Load time above five seconds loses roughly half of mobile visitors before the page renders.",
			Recommendation:  "Profile the landing page and cut the largest resources first; images and third-party scripts are the usual offenders.",
			EstimatedImpact: 70,
			Confidence:      85,
		},
		{
			Metric:          MetricMobileOptimized,
			Below:           1,
			Category:        "ux",
			Type:            "mobile_missing",
			Priority:        model.PriorityCritical,
			Title:           "Site is not mobile-optimized",
			Description:     "No mobile viewport is configured, so the site renders poorly on phones, where most shopping traffic originates.",
			Recommendation:  "Add a responsive viewport meta tag and verify layouts on small screens.",
			EstimatedImpact: 88,
			Confidence:      95,
		},
		{
			Metric:          MetricUXScore,
			Below:           50,
			Category:        "ux",
			Type:            "ux_weak",
			Priority:        model.PriorityHigh,
			Title:           "User experience needs attention",
			Description:     "Navigation, layout, or trust signals are weak enough to cost conversions.",
			Recommendation:  "Simplify navigation, surface shipping and return policies, and make the purchase path obvious.",
			EstimatedImpact: 60,
			Confidence:      70,
		},
		{
			Metric:          MetricContactInfo,
			Below:           1,
			Category:        "trust",
			Type:            "contact_missing",
			Priority:        model.PriorityHigh,
			Title:           "No visible contact information",
			Description:     "Visitors cannot find a phone number or email address, which undermines trust and loses sales that need a pre-purchase question answered.",
			Recommendation:  "Add a contact page and put a phone number or email in the site footer.",
			EstimatedImpact: 55,
			Confidence:      90,
		},
		{
			Metric:          MetricWhatsApp,
			Below:           1,
			Category:        "trust",
			Type:            "whatsapp_missing",
			Priority:        model.PriorityLow,
			Title:           "No WhatsApp channel",
			Description:     "Many shoppers prefer messaging before buying; a WhatsApp link is a low-effort conversion channel.",
			Recommendation:  "Add a WhatsApp click-to-chat link for pre-sale questions.",
			EstimatedImpact: 30,
			Confidence:      60,
		},
		{
			Metric:          MetricContentScore,
			Below:           40,
			Category:        "content",
			Type:            "content_thin",
			Priority:        model.PriorityMedium,
			Title:           "Content is too thin",
			Description:     "Pages carry little descriptive text, which hurts both search ranking and buyer confidence.",
			Recommendation:  "Expand product descriptions and add an about page describing the business.",
			EstimatedImpact: 50,
			Confidence:      75,
		},
		{
			Metric:          MetricWordCount,
			Below:           150,
			Category:        "content",
			Type:            "content_sparse_home",
			Priority:        model.PriorityLow,
			Title:           "Landing page has very little text",
			Description:     "The landing page offers search engines almost nothing to index.",
			Recommendation:  "Add a short introduction describing what the store sells and who it serves.",
			EstimatedImpact: 25,
			Confidence:      70,
		},
	}
}

// LoadRules reads a rule set from a YAML file, replacing the built-in rules.
// The file has a top-level "rules" key.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: read rules %s", path)
	}

	var wrapper struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "insight: parse rules")
	}
	if len(wrapper.Rules) == 0 {
		return nil, eris.Errorf("insight: rules file %s defines no rules", path)
	}

	for i, r := range wrapper.Rules {
		if err := validateRule(r); err != nil {
			return nil, eris.Wrapf(err, "insight: rule %d", i)
		}
	}
	return wrapper.Rules, nil
}

func validateRule(r Rule) error {
	if r.Metric == "" {
		return eris.New("metric is required")
	}
	if !knownMetric(r.Metric) {
		return eris.Errorf("unknown metric %q", r.Metric)
	}
	if r.Below <= 0 && r.Above <= 0 {
		return eris.New("one of below/above is required")
	}
	if r.Title == "" {
		return eris.New("title is required")
	}
	switch r.Priority {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		return eris.Errorf("unknown priority %q", r.Priority)
	}
	return nil
}

func knownMetric(name string) bool {
	switch name {
	case MetricSEOScore, MetricPerformanceScore, MetricUXScore, MetricContentScore,
		MetricLoadTimeMs, MetricWordCount, MetricMobileOptimized, MetricContactInfo, MetricWhatsApp:
		return true
	}
	return false
}
