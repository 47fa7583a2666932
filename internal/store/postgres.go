package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/siteintel/internal/db"
	"github.com/sells-group/siteintel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_analysis": `INSERT INTO analyses (id, merchant_id, kind, url, competitor_name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_analysis":    `SELECT id, merchant_id, kind, url, competitor_name, status, report, pricing, error, created_at, updated_at FROM analyses WHERE id = $1 AND merchant_id = $2`,
	"update_report":   `UPDATE analyses SET report = $1, updated_at = $2 WHERE id = $3`,
	"update_status":   `UPDATE analyses SET status = $1, updated_at = $2 WHERE id = $3`,
	"mark_failed":     `UPDATE analyses SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"update_pricing":  `UPDATE analyses SET pricing = $1, updated_at = $2 WHERE id = $3`,
	"insert_product":  `INSERT INTO products (id, analysis_id, merchant_id, name, description, price, currency, image_url, product_url, category, tags, in_stock, confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
	"insert_insight":  `INSERT INTO insights (id, analysis_id, merchant_id, category, type, priority, title, description, recommendation, estimated_impact, confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"insert_phase":    `INSERT INTO analysis_phases (id, analysis_id, phase, outcome, error, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	merchant_id     TEXT NOT NULL,
	kind            TEXT NOT NULL,
	url             TEXT NOT NULL,
	competitor_name TEXT,
	status          TEXT NOT NULL DEFAULT 'analyzing',
	report          JSONB,
	pricing         JSONB,
	error           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	merchant_id TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	price       DOUBLE PRECISION,
	currency    TEXT,
	image_url   TEXT,
	product_url TEXT,
	category    TEXT,
	tags        JSONB,
	in_stock    BOOLEAN NOT NULL DEFAULT true,
	confidence  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS insights (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	analysis_id      TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	merchant_id      TEXT NOT NULL,
	category         TEXT NOT NULL,
	type             TEXT NOT NULL,
	priority         TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT,
	recommendation   TEXT,
	estimated_impact INTEGER NOT NULL DEFAULT 0,
	confidence       INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_phases (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	phase       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_merchant ON analyses(merchant_id);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_analyses_merchant_created ON analyses(merchant_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_products_analysis ON products(analysis_id);
CREATE INDEX IF NOT EXISTS idx_insights_analysis ON insights(analysis_id);
CREATE INDEX IF NOT EXISTS idx_phases_analysis ON analysis_phases(analysis_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error) {
	a.ID = uuid.New().String()
	a.Status = model.StatusAnalyzing
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, merchant_id, kind, url, competitor_name, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.MerchantID, string(a.Kind), a.URL, nullString(a.CompetitorName), string(a.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert analysis")
	}
	return &a, nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, merchantID, id string) (*model.Analysis, error) {
	var a model.Analysis
	var competitorName, errMsg *string
	var reportJSON, pricingJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, merchant_id, kind, url, competitor_name, status, report, pricing, error, created_at, updated_at
		 FROM analyses WHERE id = $1 AND merchant_id = $2`,
		id, merchantID,
	).Scan(&a.ID, &a.MerchantID, &a.Kind, &a.URL, &competitorName, &a.Status,
		&reportJSON, &pricingJSON, &errMsg, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccessDenied
		}
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}

	if competitorName != nil {
		a.CompetitorName = *competitorName
	}
	if errMsg != nil {
		a.Error = *errMsg
	}
	if len(reportJSON) > 0 {
		a.Report = &model.SiteReport{}
		if err := json.Unmarshal(reportJSON, a.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
	}
	if len(pricingJSON) > 0 {
		a.Pricing = &model.PricingStats{}
		if err := json.Unmarshal(pricingJSON, a.Pricing); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pricing")
		}
	}
	return &a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, merchantID string, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, merchant_id, kind, url, competitor_name, status, report, pricing, error, created_at, updated_at
	          FROM analyses WHERE merchant_id = $1`
	args := []any{merchantID}
	argIdx := 2

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, string(filter.Kind))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var competitorName, errMsg *string
		var reportJSON, pricingJSON []byte

		if err := rows.Scan(&a.ID, &a.MerchantID, &a.Kind, &a.URL, &competitorName, &a.Status,
			&reportJSON, &pricingJSON, &errMsg, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		if competitorName != nil {
			a.CompetitorName = *competitorName
		}
		if errMsg != nil {
			a.Error = *errMsg
		}
		if len(reportJSON) > 0 {
			a.Report = &model.SiteReport{}
			if err := json.Unmarshal(reportJSON, a.Report); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal report")
			}
		}
		if len(pricingJSON) > 0 {
			a.Pricing = &model.PricingStats{}
			if err := json.Unmarshal(pricingJSON, a.Pricing); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal pricing")
			}
		}
		analyses = append(analyses, a)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, merchantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analyses WHERE id = $1 AND merchant_id = $2`,
		id, merchantID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccessDenied
	}
	return nil
}

func (s *PostgresStore) UpdateReport(ctx context.Context, id string, report *model.SiteReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET report = $1, updated_at = $2 WHERE id = $3`,
		reportJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update report %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.AnalysisStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.StatusFailed), message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark failed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdatePricingStats(ctx context.Context, id string, stats *model.PricingStats) error {
	pricingJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pricing")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET pricing = $1, updated_at = $2 WHERE id = $3`,
		pricingJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update pricing %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("analysis not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.Truncate()

	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal tags")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO products (id, analysis_id, merchant_id, name, description, price, currency, image_url, product_url, category, tags, in_stock, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.AnalysisID, p.MerchantID, p.Name, p.Description, p.Price, nullString(p.Currency),
		nullString(p.ImageURL), nullString(p.ProductURL), nullString(p.Category),
		tagsJSON, p.InStock, p.Confidence, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert product for analysis %s", p.AnalysisID)
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, merchantID, analysisID string) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, merchant_id, name, description, price, currency, image_url, product_url, category, tags, in_stock, confidence, created_at
		 FROM products WHERE analysis_id = $1 AND merchant_id = $2 ORDER BY created_at, id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var description, currency, imageURL, productURL, category *string
		var tagsJSON []byte

		if err := rows.Scan(&p.ID, &p.AnalysisID, &p.MerchantID, &p.Name, &description, &p.Price,
			&currency, &imageURL, &productURL, &category, &tagsJSON, &p.InStock, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		if description != nil {
			p.Description = *description
		}
		if currency != nil {
			p.Currency = *currency
		}
		if imageURL != nil {
			p.ImageURL = *imageURL
		}
		if productURL != nil {
			p.ProductURL = *productURL
		}
		if category != nil {
			p.Category = *category
		}
		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal tags")
			}
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO insights (id, analysis_id, merchant_id, category, type, priority, title, description, recommendation, estimated_impact, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ins.ID, ins.AnalysisID, ins.MerchantID, ins.Category, ins.Type, string(ins.Priority),
		ins.Title, ins.Description, ins.Recommendation, ins.EstimatedImpact, ins.Confidence, ins.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert insight for analysis %s", ins.AnalysisID)
	}
	return &ins, nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, merchantID, analysisID string) ([]model.Insight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, merchant_id, category, type, priority, title, description, recommendation, estimated_impact, confidence, created_at
		 FROM insights WHERE analysis_id = $1 AND merchant_id = $2 ORDER BY created_at, id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list insights")
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var ins model.Insight
		var description, recommendation *string
		if err := rows.Scan(&ins.ID, &ins.AnalysisID, &ins.MerchantID, &ins.Category, &ins.Type,
			&ins.Priority, &ins.Title, &description, &recommendation,
			&ins.EstimatedImpact, &ins.Confidence, &ins.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan insight")
		}
		if description != nil {
			ins.Description = *description
		}
		if recommendation != nil {
			ins.Recommendation = *recommendation
		}
		insights = append(insights, ins)
	}
	return insights, eris.Wrap(rows.Err(), "postgres: list insights iterate")
}

func (s *PostgresStore) RecordPhase(ctx context.Context, rec model.PhaseRecord) (*model.PhaseRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_phases (id, analysis_id, phase, outcome, error, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.AnalysisID, rec.Phase, string(rec.Outcome), nullString(rec.Error), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert phase for analysis %s", rec.AnalysisID)
	}
	return &rec, nil
}

func (s *PostgresStore) ListPhases(ctx context.Context, merchantID, analysisID string) ([]model.PhaseRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.analysis_id, p.phase, p.outcome, p.error, p.created_at
		 FROM analysis_phases p
		 JOIN analyses a ON a.id = p.analysis_id
		 WHERE p.analysis_id = $1 AND a.merchant_id = $2
		 ORDER BY p.created_at, p.id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list phases")
	}
	defer rows.Close()

	var records []model.PhaseRecord
	for rows.Next() {
		var rec model.PhaseRecord
		var errMsg *string
		if err := rows.Scan(&rec.ID, &rec.AnalysisID, &rec.Phase, &rec.Outcome, &errMsg, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan phase")
		}
		if errMsg != nil {
			rec.Error = *errMsg
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list phases iterate")
}
