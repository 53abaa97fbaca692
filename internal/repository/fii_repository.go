package repository

import (
	"context"

	"golang-fii-analyzer/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FIIRepository defines the interface for fund record persistence. Current
// records are upserted by ticker; history rows are append-only.
type FIIRepository interface {
	UpsertBatch(ctx context.Context, fiis []entity.FII) error
	AppendHistory(ctx context.Context, fiis []entity.FII) error
	FindByTicker(ctx context.Context, ticker string) (*entity.FII, error)
	FindAll(ctx context.Context) ([]entity.FII, error)
	FindHistory(ctx context.Context, ticker string, limit int) ([]entity.FIIHistory, error)
}

// NewFIIRepository creates a new GORM-based FII repository.
func NewFIIRepository(db *gorm.DB) FIIRepository {
	return &fiiRepository{db: db}
}

type fiiRepository struct {
	db *gorm.DB
}

// UpsertBatch inserts or overwrites current fund records keyed by ticker.
func (r *fiiRepository) UpsertBatch(ctx context.Context, fiis []entity.FII) error {
	if len(fiis) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price", "dividend_yield", "pvp", "last_dividend",
			"dividend_yield_12m", "price_variation", "source", "last_update", "updated_at",
		}),
	}).Create(&fiis).Error
}

// AppendHistory records one immutable sample per fund for this collection cycle.
func (r *fiiRepository) AppendHistory(ctx context.Context, fiis []entity.FII) error {
	if len(fiis) == 0 {
		return nil
	}
	samples := make([]entity.FIIHistory, 0, len(fiis))
	for _, fii := range fiis {
		samples = append(samples, entity.FIIHistory{
			Ticker:        fii.Ticker,
			Price:         fii.Price,
			DividendYield: fii.DividendYield,
			PVP:           fii.PVP,
			LastDividend:  fii.LastDividend,
			RecordedAt:    fii.LastUpdate,
		})
	}
	return r.db.WithContext(ctx).Create(&samples).Error
}

// FindByTicker retrieves the current record for a fund.
func (r *fiiRepository) FindByTicker(ctx context.Context, ticker string) (*entity.FII, error) {
	var fii entity.FII
	if err := r.db.WithContext(ctx).Where("ticker = ?", entity.NormalizeTicker(ticker)).First(&fii).Error; err != nil {
		return nil, err
	}
	return &fii, nil
}

// FindAll retrieves every current fund record.
func (r *fiiRepository) FindAll(ctx context.Context) ([]entity.FII, error) {
	var fiis []entity.FII
	if err := r.db.WithContext(ctx).Order("ticker").Find(&fiis).Error; err != nil {
		return nil, err
	}
	return fiis, nil
}

// FindHistory retrieves the most recent history samples for a fund.
func (r *fiiRepository) FindHistory(ctx context.Context, ticker string, limit int) ([]entity.FIIHistory, error) {
	var samples []entity.FIIHistory
	q := r.db.WithContext(ctx).
		Where("ticker = ?", entity.NormalizeTicker(ticker)).
		Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
