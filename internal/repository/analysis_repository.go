package repository

import (
	"context"

	"golang-fii-analyzer/internal/entity"

	"gorm.io/gorm"
)

// AnalysisRepository defines the interface for analysis result persistence.
// Batches are appended wholesale; the latest view is the set of rows sharing
// the maximum timestamp.
type AnalysisRepository interface {
	CreateBatch(ctx context.Context, analyses []entity.FIIAnalysis) error
	FindLatest(ctx context.Context) ([]entity.FIIAnalysis, error)
	FindByTicker(ctx context.Context, ticker string, limit int) ([]entity.FIIAnalysis, error)
}

// NewAnalysisRepository creates a new GORM-based analysis repository.
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

type analysisRepository struct {
	db *gorm.DB
}

// CreateBatch appends one analysis cycle's results.
func (r *analysisRepository) CreateBatch(ctx context.Context, analyses []entity.FIIAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&analyses).Error
}

// FindLatest returns all results from the most recent analysis cycle, ordered
// by rank.
func (r *analysisRepository) FindLatest(ctx context.Context) ([]entity.FIIAnalysis, error) {
	var analyses []entity.FIIAnalysis
	err := r.db.WithContext(ctx).
		Where("analyzed_at = (?)", r.db.Model(&entity.FIIAnalysis{}).Select("MAX(analyzed_at)")).
		Order("rank").
		Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// FindByTicker returns the most recent results for one fund, newest first.
func (r *analysisRepository) FindByTicker(ctx context.Context, ticker string, limit int) ([]entity.FIIAnalysis, error) {
	var analyses []entity.FIIAnalysis
	q := r.db.WithContext(ctx).
		Where("ticker = ?", entity.NormalizeTicker(ticker)).
		Order("analyzed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}
