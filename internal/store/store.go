// Package store persists analyses and their extracted children. Every by-ID
// read is scoped to the calling merchant; orchestrator-side writes are keyed
// by ID alone because each record is written only by its own pipeline task.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/siteintel/internal/model"
)

// ErrAccessDenied is returned when a by-ID lookup does not match the calling
// merchant. Callers cannot distinguish "not yours" from "does not exist".
var ErrAccessDenied = eris.New("store: access denied")

// AnalysisFilter specifies criteria for listing a merchant's analyses.
type AnalysisFilter struct {
	Kind   model.AnalysisKind   `json:"kind,omitempty"`
	Status model.AnalysisStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the intelligence pipeline.
type Store interface {
	// Analyses
	CreateAnalysis(ctx context.Context, a model.Analysis) (*model.Analysis, error)
	GetAnalysis(ctx context.Context, merchantID, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, merchantID string, filter AnalysisFilter) ([]model.Analysis, error)
	DeleteAnalysis(ctx context.Context, merchantID, id string) error

	// Pipeline writes (task-owned records, keyed by ID)
	UpdateReport(ctx context.Context, id string, report *model.SiteReport) error
	UpdateStatus(ctx context.Context, id string, status model.AnalysisStatus) error
	MarkFailed(ctx context.Context, id string, message string) error
	UpdatePricingStats(ctx context.Context, id string, stats *model.PricingStats) error

	// Products
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	ListProducts(ctx context.Context, merchantID, analysisID string) ([]model.Product, error)

	// Insights
	CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error)
	ListInsights(ctx context.Context, merchantID, analysisID string) ([]model.Insight, error)

	// Phase outcomes
	RecordPhase(ctx context.Context, rec model.PhaseRecord) (*model.PhaseRecord, error)
	ListPhases(ctx context.Context, merchantID, analysisID string) ([]model.PhaseRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
