package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/siteintel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id              TEXT PRIMARY KEY,
	merchant_id     TEXT NOT NULL,
	kind            TEXT NOT NULL,
	url             TEXT NOT NULL,
	competitor_name TEXT,
	status          TEXT NOT NULL DEFAULT 'analyzing',
	report          TEXT,
	pricing         TEXT,
	error           TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	merchant_id TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	price       REAL,
	currency    TEXT,
	image_url   TEXT,
	product_url TEXT,
	category    TEXT,
	tags        TEXT,
	in_stock    INTEGER NOT NULL DEFAULT 1,
	confidence  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS insights (
	id               TEXT PRIMARY KEY,
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
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analysis_phases (
	id          TEXT PRIMARY KEY,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	phase       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	error       TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_merchant ON analyses(merchant_id);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_products_analysis ON products(analysis_id);
CREATE INDEX IF NOT EXISTS idx_insights_analysis ON insights(analysis_id);
CREATE INDEX IF NOT EXISTS idx_phases_analysis ON analysis_phases(analysis_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error) {
	a.ID = uuid.New().String()
	a.Status = model.StatusAnalyzing
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, merchant_id, kind, url, competitor_name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.MerchantID, string(a.Kind), a.URL, nullString(a.CompetitorName), string(a.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert analysis")
	}
	return &a, nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, merchantID, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, merchant_id, kind, url, competitor_name, status, report, pricing, error, created_at, updated_at
		 FROM analyses WHERE id = ? AND merchant_id = ?`,
		id, merchantID,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, merchantID string, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, merchant_id, kind, url, competitor_name, status, report, pricing, error, created_at, updated_at
	          FROM analyses WHERE merchant_id = ?`
	args := []any{merchantID}

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, merchantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE id = ? AND merchant_id = ?`,
		id, merchantID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete analysis %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrAccessDenied
	}
	return nil
}

func (s *SQLiteStore) UpdateReport(ctx context.Context, id string, report *model.SiteReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET report = ?, updated_at = ? WHERE id = ?`,
		string(reportJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update report %s", id)
	}
	return checkRowsAffected(res, "analysis", id)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.AnalysisStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status %s", id)
	}
	return checkRowsAffected(res, "analysis", id)
}

func (s *SQLiteStore) MarkFailed(ctx context.Context, id string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusFailed), message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark failed %s", id)
	}
	return checkRowsAffected(res, "analysis", id)
}

func (s *SQLiteStore) UpdatePricingStats(ctx context.Context, id string, stats *model.PricingStats) error {
	pricingJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pricing")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET pricing = ?, updated_at = ? WHERE id = ?`,
		string(pricingJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update pricing %s", id)
	}
	return checkRowsAffected(res, "analysis", id)
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.Truncate()

	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal tags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, analysis_id, merchant_id, name, description, price, currency, image_url, product_url, category, tags, in_stock, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AnalysisID, p.MerchantID, p.Name, p.Description, p.Price, nullString(p.Currency),
		nullString(p.ImageURL), nullString(p.ProductURL), nullString(p.Category),
		string(tagsJSON), p.InStock, p.Confidence, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert product for analysis %s", p.AnalysisID)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, merchantID, analysisID string) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, merchant_id, name, description, price, currency, image_url, product_url, category, tags, in_stock, confidence, created_at
		 FROM products WHERE analysis_id = ? AND merchant_id = ? ORDER BY created_at, id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var description, currency, imageURL, productURL, category, tagsJSON sql.NullString
		var price sql.NullFloat64

		if err := rows.Scan(&p.ID, &p.AnalysisID, &p.MerchantID, &p.Name, &description, &price,
			&currency, &imageURL, &productURL, &category, &tagsJSON, &p.InStock, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		p.Description = description.String
		p.Currency = currency.String
		p.ImageURL = imageURL.String
		p.ProductURL = productURL.String
		p.Category = category.String
		if price.Valid {
			v := price.Float64
			p.Price = &v
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &p.Tags); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal tags")
			}
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error) {
	ins.ID = uuid.New().String()
	ins.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO insights (id, analysis_id, merchant_id, category, type, priority, title, description, recommendation, estimated_impact, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ins.ID, ins.AnalysisID, ins.MerchantID, ins.Category, ins.Type, string(ins.Priority),
		ins.Title, ins.Description, ins.Recommendation, ins.EstimatedImpact, ins.Confidence, ins.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert insight for analysis %s", ins.AnalysisID)
	}
	return &ins, nil
}

func (s *SQLiteStore) ListInsights(ctx context.Context, merchantID, analysisID string) ([]model.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, merchant_id, category, type, priority, title, description, recommendation, estimated_impact, confidence, created_at
		 FROM insights WHERE analysis_id = ? AND merchant_id = ? ORDER BY created_at, id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list insights")
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var ins model.Insight
		if err := rows.Scan(&ins.ID, &ins.AnalysisID, &ins.MerchantID, &ins.Category, &ins.Type,
			&ins.Priority, &ins.Title, &ins.Description, &ins.Recommendation,
			&ins.EstimatedImpact, &ins.Confidence, &ins.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan insight")
		}
		insights = append(insights, ins)
	}
	return insights, eris.Wrap(rows.Err(), "sqlite: list insights iterate")
}

func (s *SQLiteStore) RecordPhase(ctx context.Context, rec model.PhaseRecord) (*model.PhaseRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_phases (id, analysis_id, phase, outcome, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AnalysisID, rec.Phase, string(rec.Outcome), nullString(rec.Error), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert phase for analysis %s", rec.AnalysisID)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListPhases(ctx context.Context, merchantID, analysisID string) ([]model.PhaseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.analysis_id, p.phase, p.outcome, p.error, p.created_at
		 FROM analysis_phases p
		 JOIN analyses a ON a.id = p.analysis_id
		 WHERE p.analysis_id = ? AND a.merchant_id = ?
		 ORDER BY p.created_at, p.id`,
		analysisID, merchantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list phases")
	}
	defer rows.Close()

	var records []model.PhaseRecord
	for rows.Next() {
		var rec model.PhaseRecord
		var errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AnalysisID, &rec.Phase, &rec.Outcome, &errMsg, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan phase")
		}
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list phases iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	var competitorName, reportJSON, pricingJSON, errMsg sql.NullString

	err := row.Scan(&a.ID, &a.MerchantID, &a.Kind, &a.URL, &competitorName, &a.Status,
		&reportJSON, &pricingJSON, &errMsg, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	a.CompetitorName = competitorName.String
	a.Error = errMsg.String
	if reportJSON.Valid && reportJSON.String != "" {
		a.Report = &model.SiteReport{}
		if err := json.Unmarshal([]byte(reportJSON.String), a.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
	}
	if pricingJSON.Valid && pricingJSON.String != "" {
		a.Pricing = &model.PricingStats{}
		if err := json.Unmarshal([]byte(pricingJSON.String), a.Pricing); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pricing")
		}
	}
	return &a, nil
}
