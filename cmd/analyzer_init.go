package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/siteintel/internal/analyzer"
	"github.com/sells-group/siteintel/internal/extract"
	"github.com/sells-group/siteintel/internal/fetch"
	"github.com/sells-group/siteintel/internal/insight"
	"github.com/sells-group/siteintel/internal/scrape"
	"github.com/sells-group/siteintel/internal/store"
	anthropicpkg "github.com/sells-group/siteintel/pkg/anthropic"
	"github.com/sells-group/siteintel/pkg/shopify"
	"github.com/sells-group/siteintel/pkg/woocommerce"
)

// analyzerEnv holds the initialized store and analysis pipeline needed by
// the analyze/batch/compare/serve commands.
type analyzerEnv struct {
	Store    store.Store
	Analyzer *analyzer.Analyzer
}

// Close releases resources held by the environment.
func (ae *analyzerEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "siteintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initAnalyzer sets up the store, fetch/scrape stack, extraction strategies,
// and insight rules, and builds the Analyzer. Callers should defer env.Close().
func initAnalyzer(ctx context.Context) (*analyzerEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	runner := fetch.NewCurlRunner(cfg.Fetch.CurlPath, timeout, cfg.Fetch.MaxBodyBytes)
	resolver := fetch.NewResolver(runner, fetch.Options{
		Timeout:   timeout,
		MaxBody:   cfg.Fetch.MaxBodyBytes,
		UserAgent: cfg.Fetch.UserAgent,
		RateLimit: rate.Limit(cfg.Fetch.RatePerSec),
		Burst:     cfg.Fetch.Burst,
	})
	scraper := scrape.New(resolver)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	strategies := []extract.ProductStrategy{
		extract.NewShopifyStrategy(shopify.NewClient(shopify.WithPageLimit(cfg.Extract.MaxProducts))),
		extract.NewWooCommerceStrategy(woocommerce.NewClient(woocommerce.WithPerPage(cfg.Extract.MaxProducts))),
		extract.NewGenericStrategy(anthropicClient, cfg.Anthropic.Model, cfg.Extract.MaxContentChars, cfg.Extract.MaxProducts),
	}

	extractor := extract.New(anthropicClient, scraper, strategies, extract.Options{
		ModelID:  cfg.Anthropic.Model,
		MaxChars: cfg.Extract.MaxContentChars,
	})

	rules := insight.DefaultRules()
	if cfg.Insight.RulesPath != "" {
		rules, err = insight.LoadRules(cfg.Insight.RulesPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load insight rules")
		}
		zap.L().Info("insight rules loaded",
			zap.String("path", cfg.Insight.RulesPath),
			zap.Int("rules", len(rules)),
		)
	}

	an := analyzer.New(st, extractor, extractor, scraper, insight.NewGenerator(rules))

	return &analyzerEnv{Store: st, Analyzer: an}, nil
}
