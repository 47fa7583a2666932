// Package extract turns scraped content into structured business signals:
// a scored site-quality report and a normalized product catalog.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/resilience"
	"github.com/sells-group/siteintel/internal/scrape"
	"github.com/sells-group/siteintel/pkg/anthropic"
)

// Scraper fetches and normalizes a single page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Content, error)
}

// Options configures the Extractor.
type Options struct {
	ModelID  string
	MaxChars int // page text budget per AI prompt
}

// Extractor produces site-quality reports and product catalogs for a URL.
// Both operations are best-effort: they degrade rather than fail where any
// signal at all can be produced.
type Extractor struct {
	ai         anthropic.Client
	scraper    Scraper
	strategies []ProductStrategy
	opts       Options
	retryCfg   resilience.RetryConfig
	breaker    *resilience.Breaker
}

// New creates an Extractor. Strategies are tried in order during product
// extraction; the generic AI strategy belongs last.
func New(ai anthropic.Client, scraper Scraper, strategies []ProductStrategy, opts Options) *Extractor {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 12000
	}
	return &Extractor{
		ai:         ai,
		scraper:    scraper,
		strategies: strategies,
		opts:       opts,
		retryCfg:   resilience.DefaultRetryConfig("analyze_website"),
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerConfig()),
	}
}

const analyzePrompt = `You are a website quality analyst reviewing an online store.

Site URL: %s
Page content:
%s

Assess the site and return a valid JSON object:
{"title": "...", "description": "...", "industry": "...", "language": "ISO 639-1 code", "seo_score": 0-100, "seo_issues": ["..."], "ux_score": 0-100, "content_score": 0-100}
Scores reflect search optimization, user experience, and content depth respectively. List concrete SEO problems in seo_issues.`

const urlOnlyPrompt = `You are a website quality analyst. The site below could not be fetched, so infer what you can from the URL alone.

Site URL: %s

Return a valid JSON object:
{"title": "best-guess site name", "description": "one sentence on what this site likely is", "industry": "...", "language": "ISO 639-1 code"}`

// aiReport is the JSON shape returned by the analysis prompts.
type aiReport struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Industry     string   `json:"industry"`
	Language     string   `json:"language"`
	SEOScore     int      `json:"seo_score"`
	SEOIssues    []string `json:"seo_issues"`
	UXScore      int      `json:"ux_score"`
	ContentScore int      `json:"content_score"`
}

// AnalyzeWebsite scrapes the URL and produces a scored site-quality report.
// When scraping fails it still attempts URL-only inference and returns a
// best-effort report; it errors only when no signal at all can be produced.
func (e *Extractor) AnalyzeWebsite(ctx context.Context, targetURL string) (*model.SiteReport, error) {
	content, err := e.scraper.Scrape(ctx, targetURL)
	if err != nil {
		zap.L().Warn("extract: scrape failed, degrading to url-only analysis",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return e.analyzeFromURL(ctx, targetURL)
	}

	signals := scrape.ExtractSignals(content.HTML, content.Text)
	report := &model.SiteReport{
		Title:            content.Title,
		MetaTags:         signals.MetaTags,
		LoadTimeMs:       content.LoadTimeMs,
		PageSizeBytes:    content.SizeBytes,
		MobileOptimized:  signals.HasViewport,
		HasContactInfo:   signals.HasContact,
		HasWhatsApp:      signals.HasWhatsApp,
		WordCount:        signals.WordCount,
		ImageCount:       signals.ImageCount,
		VideoCount:       signals.VideoCount,
		PerformanceScore: scorePerformance(content.LoadTimeMs, content.SizeBytes),
	}
	if desc, ok := signals.MetaTags["description"]; ok {
		report.Description = desc
	}

	parsed, err := e.invokeAnalysis(ctx, fmt.Sprintf(analyzePrompt, targetURL, truncate(content.Text, e.opts.MaxChars)))
	if err != nil {
		// Deterministic signals are still a usable report.
		zap.L().Warn("extract: AI site analysis failed, using structural signals only",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		report.SEOScore = scoreSEOStructural(signals, content.Title)
		report.UXScore = scoreUXStructural(signals)
		report.ContentScore = scoreContentStructural(signals)
	} else {
		if parsed.Title != "" {
			report.Title = parsed.Title
		}
		if parsed.Description != "" {
			report.Description = parsed.Description
		}
		report.Industry = parsed.Industry
		report.Language = normalizeLanguage(parsed.Language)
		report.SEOScore = model.ClampScore(parsed.SEOScore)
		report.SEOIssues = parsed.SEOIssues
		report.UXScore = model.ClampScore(parsed.UXScore)
		report.ContentScore = model.ClampScore(parsed.ContentScore)
	}

	report.ComputeOverall()
	return report, nil
}

// analyzeFromURL infers what it can from the URL alone. The resulting report
// carries no scores; it exists so a blocked site still gets an identity.
func (e *Extractor) analyzeFromURL(ctx context.Context, targetURL string) (*model.SiteReport, error) {
	parsed, err := e.invokeAnalysis(ctx, fmt.Sprintf(urlOnlyPrompt, targetURL))
	if err != nil {
		return nil, eris.Wrap(err, "extract: url-only analysis")
	}

	title := parsed.Title
	if title == "" {
		title = hostnameOf(targetURL)
	}
	return &model.SiteReport{
		Title:       title,
		Description: parsed.Description,
		Industry:    parsed.Industry,
		Language:    normalizeLanguage(parsed.Language),
		Degraded:    true,
	}, nil
}

// invokeAnalysis sends an analysis prompt and defensively parses the reply.
func (e *Extractor) invokeAnalysis(ctx context.Context, prompt string) (*aiReport, error) {
	resp, err := resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, e.retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return e.ai.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     e.opts.ModelID,
				MaxTokens: 1024,
				Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
			})
		})
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(e.opts.ModelID, "analyze_website")

	var parsed aiReport
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		return nil, eris.Wrap(err, "extract: parse analysis JSON")
	}
	return &parsed, nil
}

// ExtractProducts extracts the product catalog. It functions even with empty
// html/text for known platforms: the platform strategies query the catalog
// API directly rather than depending on scraped content.
func (e *Extractor) ExtractProducts(ctx context.Context, targetURL, html, text string) ([]model.Product, error) {
	target := Target{
		URL:      targetURL,
		Platform: ClassifyPlatform(targetURL, html),
		HTML:     html,
		Text:     text,
	}

	var lastErr error
	for _, strategy := range e.strategies {
		if !strategy.Supports(target.Platform) {
			continue
		}
		products, err := strategy.Extract(ctx, target)
		if err != nil {
			zap.L().Debug("extract: strategy failed, trying next",
				zap.String("strategy", strategy.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		zap.L().Info("extract: products extracted",
			zap.String("strategy", strategy.Name()),
			zap.String("url", targetURL),
			zap.Int("count", len(products)),
		)
		return products, nil
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "extract: all strategies failed")
	}
	return nil, nil
}

// scorePerformance derives a 0-100 performance score from load time and page
// weight.
func scorePerformance(loadTimeMs, sizeBytes int64) int {
	score := 100

	switch {
	case loadTimeMs > 8000:
		score -= 50
	case loadTimeMs > 4000:
		score -= 30
	case loadTimeMs > 2000:
		score -= 15
	case loadTimeMs > 1000:
		score -= 5
	}

	switch {
	case sizeBytes > 5*1024*1024:
		score -= 40
	case sizeBytes > 2*1024*1024:
		score -= 20
	case sizeBytes > 1024*1024:
		score -= 10
	}

	return model.ClampScore(score)
}

// Structural fallback scores used when the model is unavailable. Cruder than
// the AI assessment but keeps the report non-empty.

func scoreSEOStructural(sig scrape.Signals, title string) int {
	score := 40
	if title != "" {
		score += 15
	}
	if _, ok := sig.MetaTags["description"]; ok {
		score += 15
	}
	if sig.H1Count == 1 {
		score += 15
	}
	if _, ok := sig.MetaTags["og:title"]; ok {
		score += 5
	}
	return model.ClampScore(score)
}

func scoreUXStructural(sig scrape.Signals) int {
	score := 40
	if sig.HasViewport {
		score += 25
	}
	if sig.HasContact {
		score += 15
	}
	if sig.ImageCount > 0 {
		score += 10
	}
	return model.ClampScore(score)
}

func scoreContentStructural(sig scrape.Signals) int {
	switch {
	case sig.WordCount > 1500:
		return 80
	case sig.WordCount > 600:
		return 60
	case sig.WordCount > 200:
		return 40
	case sig.WordCount > 0:
		return 20
	default:
		return 0
	}
}

// normalizeLanguage canonicalizes a model-reported language tag to its base
// ISO 639 code, keeping a lowercase passthrough for unparseable values.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

func hostnameOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return raw
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
