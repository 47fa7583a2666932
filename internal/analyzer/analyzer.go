// Package analyzer drives one analysis target through the pipeline phases:
// site analysis, product extraction, insight generation, finalize. Each
// phase is fault-isolated; a run ends `failed` only when the orchestration
// itself breaks outside a phase boundary.
package analyzer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/compare"
	"github.com/sells-group/siteintel/internal/insight"
	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/scrape"
	"github.com/sells-group/siteintel/internal/store"
)

// Phase names as persisted on phase outcome records.
const (
	PhaseSiteAnalysis = "site_analysis"
	PhaseProducts     = "products"
	PhaseInsights     = "insights"
	PhaseFinalize     = "finalize"
)

// Outcome describes how a phase ended. Err is set for degraded and failed
// outcomes and carries the cause.
type Outcome struct {
	Kind model.PhaseOutcome
	Err  error
}

func ok() Outcome                { return Outcome{Kind: model.OutcomeOK} }
func degraded(err error) Outcome { return Outcome{Kind: model.OutcomeDegraded, Err: err} }
func failed(err error) Outcome   { return Outcome{Kind: model.OutcomeFailed, Err: err} }

func skipped(reason string) Outcome {
	return Outcome{Kind: model.OutcomeSkipped, Err: eris.New(reason)}
}

// SiteAnalyzer produces a site-quality report for a URL.
type SiteAnalyzer interface {
	AnalyzeWebsite(ctx context.Context, url string) (*model.SiteReport, error)
}

// ProductExtractor extracts the product catalog for a URL.
type ProductExtractor interface {
	ExtractProducts(ctx context.Context, url, html, text string) ([]model.Product, error)
}

// Scraper fetches page content for the product phase.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Content, error)
}

// Analyzer runs the analysis pipeline against the store.
type Analyzer struct {
	store    store.Store
	sites    SiteAnalyzer
	products ProductExtractor
	scraper  Scraper
	insights *insight.Generator
	registry *Registry
}

// New creates an Analyzer.
func New(st store.Store, sites SiteAnalyzer, products ProductExtractor, scraper Scraper, gen *insight.Generator) *Analyzer {
	if gen == nil {
		gen = insight.NewGenerator(nil)
	}
	return &Analyzer{
		store:    st,
		sites:    sites,
		products: products,
		scraper:  scraper,
		insights: gen,
		registry: NewRegistry(),
	}
}

// Registry returns the in-flight task registry.
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// Start creates the analysis record in `analyzing` status, launches the
// phase sequence in the background, and returns immediately. The returned
// Task is registered until the run reaches a terminal status. The background
// run is detached from ctx cancellation; once started it runs to the end.
func (a *Analyzer) Start(ctx context.Context, req model.Analysis) (*Task, error) {
	created, err := a.store.CreateAnalysis(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: create analysis")
	}

	task := newTask(created)
	a.registry.add(task)

	go func() {
		defer func() {
			a.registry.remove(created.ID)
			task.finish()
		}()
		a.run(context.WithoutCancel(ctx), created)
	}()

	return task, nil
}

// run executes the phase sequence. Any panic or error escaping the phase
// boundaries marks the analysis failed; nothing else does.
func (a *Analyzer) run(ctx context.Context, analysis *model.Analysis) {
	log := zap.L().With(
		zap.String("analysis_id", analysis.ID),
		zap.String("merchant_id", analysis.MerchantID),
		zap.String("url", analysis.URL),
		zap.String("kind", string(analysis.Kind)),
	)
	log.Info("analyzer: starting pipeline")

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("analysis pipeline panicked: %v", r)
			log.Error("analyzer: pipeline crashed", zap.String("panic", msg))
			if err := a.store.MarkFailed(ctx, analysis.ID, msg); err != nil {
				log.Error("analyzer: failed to record crash", zap.Error(err))
			}
		}
	}()

	report := a.phaseSiteAnalysis(ctx, analysis, log)
	a.phaseProducts(ctx, analysis, log)
	a.phaseInsights(ctx, analysis, report, log)

	// Finalize runs regardless of how the earlier phases went; completed
	// means the pipeline ran to the end, not that every phase succeeded.
	if err := a.store.UpdateStatus(ctx, analysis.ID, model.StatusCompleted); err != nil {
		log.Error("analyzer: finalize failed", zap.Error(err))
		if markErr := a.store.MarkFailed(ctx, analysis.ID, eris.ToString(err, false)); markErr != nil {
			log.Error("analyzer: failed to mark failed", zap.Error(markErr))
		}
		a.recordOutcome(ctx, analysis.ID, PhaseFinalize, failed(err), log)
		return
	}
	a.recordOutcome(ctx, analysis.ID, PhaseFinalize, ok(), log)
	log.Info("analyzer: pipeline complete")
}

// phaseSiteAnalysis produces and persists the site-quality report. On any
// failure it falls back to a degraded placeholder so the analysis always
// carries a report. Returns the persisted report for the insight phase.
func (a *Analyzer) phaseSiteAnalysis(ctx context.Context, analysis *model.Analysis, log *zap.Logger) *model.SiteReport {
	report, err := a.sites.AnalyzeWebsite(ctx, analysis.URL)
	outcome := ok()
	if err != nil {
		report = placeholderReport(analysis.URL)
		outcome = degraded(err)
	} else if report.Degraded {
		outcome = degraded(eris.New("analyzed from URL only"))
	}

	if saveErr := a.store.UpdateReport(ctx, analysis.ID, report); saveErr != nil {
		log.Error("analyzer: failed to persist report", zap.Error(saveErr))
		outcome = failed(saveErr)
	}
	a.recordOutcome(ctx, analysis.ID, PhaseSiteAnalysis, outcome, log)
	return report
}

// phaseProducts extracts the catalog and persists each product
// independently. For competitor targets it then derives pricing aggregates
// from the extracted batch.
func (a *Analyzer) phaseProducts(ctx context.Context, analysis *model.Analysis, log *zap.Logger) {
	var html, text string
	if content, err := a.scraper.Scrape(ctx, analysis.URL); err != nil {
		// Platform strategies work from the URL alone; continue with
		// empty content.
		log.Warn("analyzer: product scrape failed", zap.Error(err))
	} else {
		html = content.HTML
		text = content.Text
	}

	products, err := a.products.ExtractProducts(ctx, analysis.URL, html, text)
	if err != nil {
		a.recordOutcome(ctx, analysis.ID, PhaseProducts, degraded(err), log)
		a.persistPricing(ctx, analysis, nil, log)
		return
	}

	saved := 0
	for _, p := range products {
		p.AnalysisID = analysis.ID
		p.MerchantID = analysis.MerchantID
		if _, saveErr := a.store.CreateProduct(ctx, p); saveErr != nil {
			// One bad product never drops its siblings.
			log.Warn("analyzer: failed to persist product",
				zap.String("product", p.Name),
				zap.Error(saveErr),
			)
			continue
		}
		saved++
	}
	log.Info("analyzer: products persisted",
		zap.Int("extracted", len(products)),
		zap.Int("saved", saved),
	)

	a.persistPricing(ctx, analysis, products, log)

	switch {
	case saved == len(products):
		a.recordOutcome(ctx, analysis.ID, PhaseProducts, ok(), log)
	default:
		a.recordOutcome(ctx, analysis.ID, PhaseProducts,
			degraded(eris.Errorf("persisted %d of %d products", saved, len(products))), log)
	}
}

// persistPricing stores pricing aggregates for competitor targets. Zero
// priced products yields explicit zero stats.
func (a *Analyzer) persistPricing(ctx context.Context, analysis *model.Analysis, products []model.Product, log *zap.Logger) {
	if analysis.Kind != model.KindCompetitor {
		return
	}
	stats := model.ComputePricingStats(products)
	if err := a.store.UpdatePricingStats(ctx, analysis.ID, &stats); err != nil {
		log.Warn("analyzer: failed to persist pricing stats", zap.Error(err))
	}
}

// phaseInsights re-reads the persisted analysis and generates insights only
// when the report carries real signal. Each insight persists independently.
func (a *Analyzer) phaseInsights(ctx context.Context, analysis *model.Analysis, report *model.SiteReport, log *zap.Logger) {
	persisted, err := a.store.GetAnalysis(ctx, analysis.MerchantID, analysis.ID)
	if err != nil {
		log.Warn("analyzer: failed to re-read analysis for insights", zap.Error(err))
	} else if persisted.Report != nil {
		report = persisted.Report
	}

	if report == nil || report.OverallScore <= 0 {
		a.recordOutcome(ctx, analysis.ID, PhaseInsights, skipped("no quality baseline"), log)
		return
	}

	insights := a.insights.Generate(report)
	saved := 0
	for _, ins := range insights {
		ins.AnalysisID = analysis.ID
		ins.MerchantID = analysis.MerchantID
		if _, saveErr := a.store.CreateInsight(ctx, ins); saveErr != nil {
			log.Warn("analyzer: failed to persist insight",
				zap.String("type", ins.Type),
				zap.Error(saveErr),
			)
			continue
		}
		saved++
	}
	log.Info("analyzer: insights persisted",
		zap.Int("generated", len(insights)),
		zap.Int("saved", saved),
	)

	if saved == len(insights) {
		a.recordOutcome(ctx, analysis.ID, PhaseInsights, ok(), log)
	} else {
		a.recordOutcome(ctx, analysis.ID, PhaseInsights,
			degraded(eris.Errorf("persisted %d of %d insights", saved, len(insights))), log)
	}
}

// Compare loads the merchant analysis and the named competitor analyses,
// filters to completed ownership-verified records, and runs the comparison.
func (a *Analyzer) Compare(ctx context.Context, merchantID, analysisID string, competitorIDs []string) (*model.Comparison, error) {
	merchant, err := a.store.GetAnalysis(ctx, merchantID, analysisID)
	if err != nil {
		return nil, err
	}

	var competitors []model.Analysis
	for _, id := range competitorIDs {
		c, getErr := a.store.GetAnalysis(ctx, merchantID, id)
		if getErr != nil {
			return nil, getErr
		}
		// Still-analyzing or failed competitors are excluded, not errors.
		if c.Status != model.StatusCompleted {
			continue
		}
		competitors = append(competitors, *c)
	}

	result := compare.Compare(merchant.Report, competitors)
	return &result, nil
}

func (a *Analyzer) recordOutcome(ctx context.Context, analysisID, phase string, o Outcome, log *zap.Logger) {
	fields := []zap.Field{
		zap.String("phase", phase),
		zap.String("outcome", string(o.Kind)),
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	switch o.Kind {
	case model.OutcomeOK:
		log.Info("analyzer: phase finished", fields...)
	default:
		log.Warn("analyzer: phase finished", fields...)
	}

	rec := model.PhaseRecord{
		AnalysisID: analysisID,
		Phase:      phase,
		Outcome:    o.Kind,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	if _, err := a.store.RecordPhase(ctx, rec); err != nil {
		log.Warn("analyzer: failed to record phase outcome", zap.Error(err))
	}
}

// placeholderReport is persisted when site analysis fails entirely. The
// hostname stands in for the title and every score stays at zero.
func placeholderReport(rawURL string) *model.SiteReport {
	title := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		title = u.Hostname()
	}
	return &model.SiteReport{
		Title:       title,
		Description: "The site could not be analyzed; it may be blocking automated access.",
		Degraded:    true,
	}
}
