package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteintel/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func createTestAnalysis(t *testing.T, st *SQLiteStore, merchantID string) *model.Analysis {
	t.Helper()
	created, err := st.CreateAnalysis(context.Background(), model.Analysis{
		MerchantID: merchantID,
		Kind:       model.KindMerchant,
		URL:        "https://shop.example.com",
	})
	require.NoError(t, err)
	return created
}

// --- Analyses ---

func TestSQLite_CreateAnalysis_Defaults(t *testing.T) {
	st := newTestSQLiteStore(t)

	created := createTestAnalysis(t, st, "merch-1")

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusAnalyzing, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestSQLite_GetAnalysis_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	got, err := st.GetAnalysis(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "https://shop.example.com", got.URL)
	assert.Nil(t, got.Report)
	assert.Nil(t, got.Pricing)
}

func TestSQLite_GetAnalysis_WrongMerchant(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	_, err := st.GetAnalysis(ctx, "merch-2", created.ID)
	assert.True(t, eris.Is(err, ErrAccessDenied))
}

func TestSQLite_GetAnalysis_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetAnalysis(context.Background(), "merch-1", "no-such-id")
	assert.True(t, eris.Is(err, ErrAccessDenied))
}

func TestSQLite_ListAnalyses_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	merchant := createTestAnalysis(t, st, "merch-1")
	competitor, err := st.CreateAnalysis(ctx, model.Analysis{
		MerchantID:     "merch-1",
		Kind:           model.KindCompetitor,
		URL:            "https://rival.example.com",
		CompetitorName: "Rival",
	})
	require.NoError(t, err)
	createTestAnalysis(t, st, "merch-2")

	all, err := st.ListAnalyses(ctx, "merch-1", AnalysisFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	competitors, err := st.ListAnalyses(ctx, "merch-1", AnalysisFilter{Kind: model.KindCompetitor})
	require.NoError(t, err)
	require.Len(t, competitors, 1)
	assert.Equal(t, competitor.ID, competitors[0].ID)
	assert.Equal(t, "Rival", competitors[0].CompetitorName)

	require.NoError(t, st.UpdateStatus(ctx, merchant.ID, model.StatusCompleted))
	completed, err := st.ListAnalyses(ctx, "merch-1", AnalysisFilter{Status: model.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, merchant.ID, completed[0].ID)
}

func TestSQLite_ListAnalyses_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)

	for range 5 {
		createTestAnalysis(t, st, "merch-1")
	}

	got, err := st.ListAnalyses(context.Background(), "merch-1", AnalysisFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLite_DeleteAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	require.NoError(t, st.DeleteAnalysis(ctx, "merch-1", created.ID))

	_, err := st.GetAnalysis(ctx, "merch-1", created.ID)
	assert.True(t, eris.Is(err, ErrAccessDenied))
}

func TestSQLite_DeleteAnalysis_WrongMerchant(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	err := st.DeleteAnalysis(ctx, "merch-2", created.ID)
	assert.True(t, eris.Is(err, ErrAccessDenied))

	// Record untouched.
	_, err = st.GetAnalysis(ctx, "merch-1", created.ID)
	assert.NoError(t, err)
}

func TestSQLite_DeleteAnalysis_CascadesToChildren(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	_, err := st.CreateProduct(ctx, model.Product{
		AnalysisID: created.ID,
		MerchantID: "merch-1",
		Name:       "Widget",
	})
	require.NoError(t, err)
	_, err = st.RecordPhase(ctx, model.PhaseRecord{
		AnalysisID: created.ID,
		Phase:      "site_analysis",
		Outcome:    model.OutcomeOK,
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteAnalysis(ctx, "merch-1", created.ID))

	products, err := st.ListProducts(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

// --- Pipeline writes ---

func TestSQLite_UpdateReport_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	report := &model.SiteReport{
		Title:            "Example Shop",
		SEOScore:         70,
		PerformanceScore: 55,
		UXScore:          80,
		ContentScore:     60,
		MetaTags:         map[string]string{"description": "A shop"},
	}
	report.ComputeOverall()

	require.NoError(t, st.UpdateReport(ctx, created.ID, report))

	got, err := st.GetAnalysis(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Report)
	assert.Equal(t, "Example Shop", got.Report.Title)
	assert.Equal(t, report.OverallScore, got.Report.OverallScore)
	assert.Equal(t, "A shop", got.Report.MetaTags["description"])
}

func TestSQLite_UpdateReport_MissingAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateReport(context.Background(), "no-such-id", &model.SiteReport{})
	assert.Error(t, err)
}

func TestSQLite_MarkFailed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	require.NoError(t, st.MarkFailed(ctx, created.ID, "analysis pipeline panicked: boom"))

	got, err := st.GetAnalysis(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "analysis pipeline panicked: boom", got.Error)
}

func TestSQLite_UpdatePricingStats_Zeros(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	require.NoError(t, st.UpdatePricingStats(ctx, created.ID, &model.PricingStats{}))

	got, err := st.GetAnalysis(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pricing)
	assert.Zero(t, got.Pricing.AvgPrice)
	assert.Zero(t, got.Pricing.ProductCount)
}

// --- Products ---

func TestSQLite_Products_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	price := 19.99
	_, err := st.CreateProduct(ctx, model.Product{
		AnalysisID: created.ID,
		MerchantID: "merch-1",
		Name:       "Widget",
		Price:      &price,
		Currency:   "USD",
		Tags:       []string{"tools", "sale"},
		InStock:    true,
		Confidence: 95,
	})
	require.NoError(t, err)
	_, err = st.CreateProduct(ctx, model.Product{
		AnalysisID: created.ID,
		MerchantID: "merch-1",
		Name:       "Gadget",
	})
	require.NoError(t, err)

	products, err := st.ListProducts(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)

	widget := products[0]
	if widget.Name != "Widget" {
		widget = products[1]
	}
	require.NotNil(t, widget.Price)
	assert.Equal(t, 19.99, *widget.Price)
	assert.Equal(t, "USD", widget.Currency)
	assert.Equal(t, []string{"tools", "sale"}, widget.Tags)
	assert.True(t, widget.InStock)
}

func TestSQLite_Products_NilPrice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	_, err := st.CreateProduct(ctx, model.Product{
		AnalysisID: created.ID,
		MerchantID: "merch-1",
		Name:       "Mystery Box",
	})
	require.NoError(t, err)

	products, err := st.ListProducts(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Price)
}

func TestSQLite_ListProducts_WrongMerchant(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")
	_, err := st.CreateProduct(ctx, model.Product{
		AnalysisID: created.ID,
		MerchantID: "merch-1",
		Name:       "Widget",
	})
	require.NoError(t, err)

	products, err := st.ListProducts(ctx, "merch-2", created.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

// --- Insights ---

func TestSQLite_Insights_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	_, err := st.CreateInsight(ctx, model.Insight{
		AnalysisID:      created.ID,
		MerchantID:      "merch-1",
		Category:        "seo",
		Type:            "improvement",
		Priority:        model.PriorityHigh,
		Title:           "SEO needs attention",
		Recommendation:  "Add meta descriptions",
		EstimatedImpact: 65,
		Confidence:      80,
	})
	require.NoError(t, err)

	insights, err := st.ListInsights(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, model.PriorityHigh, insights[0].Priority)
	assert.Equal(t, "SEO needs attention", insights[0].Title)
	assert.Equal(t, 65, insights[0].EstimatedImpact)
}

// --- Phases ---

func TestSQLite_Phases_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")

	for _, rec := range []model.PhaseRecord{
		{AnalysisID: created.ID, Phase: "site_analysis", Outcome: model.OutcomeDegraded, Error: "site unreachable"},
		{AnalysisID: created.ID, Phase: "products", Outcome: model.OutcomeOK},
	} {
		_, err := st.RecordPhase(ctx, rec)
		require.NoError(t, err)
	}

	phases, err := st.ListPhases(ctx, "merch-1", created.ID)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, model.OutcomeDegraded, phases[0].Outcome)
	assert.Equal(t, "site unreachable", phases[0].Error)
	assert.Equal(t, "products", phases[1].Phase)
	assert.Empty(t, phases[1].Error)
}

func TestSQLite_ListPhases_WrongMerchant(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := createTestAnalysis(t, st, "merch-1")
	_, err := st.RecordPhase(ctx, model.PhaseRecord{
		AnalysisID: created.ID,
		Phase:      "site_analysis",
		Outcome:    model.OutcomeOK,
	})
	require.NoError(t, err)

	phases, err := st.ListPhases(ctx, "merch-2", created.ID)
	require.NoError(t, err)
	assert.Empty(t, phases)
}
