package repository

import (
	"context"

	"golang-fii-analyzer/internal/entity"

	"gorm.io/gorm"
)

// AlertRepository defines the interface for alert rule persistence.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	FindByID(ctx context.Context, id string) (*entity.Alert, error)
	FindAll(ctx context.Context) ([]entity.Alert, error)
	FindActive(ctx context.Context) ([]entity.Alert, error)
	FindByTicker(ctx context.Context, ticker string) ([]entity.Alert, error)
	Update(ctx context.Context, alert *entity.Alert) error
	Delete(ctx context.Context, id string) error
}

// NewAlertRepository creates a new GORM-based alert repository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

type alertRepository struct {
	db *gorm.DB
}

// Create persists a new alert rule.
func (r *alertRepository) Create(ctx context.Context, alert *entity.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// FindByID retrieves an alert rule by its ID.
func (r *alertRepository) FindByID(ctx context.Context, id string) (*entity.Alert, error) {
	var alert entity.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// FindAll retrieves every alert rule.
func (r *alertRepository) FindAll(ctx context.Context) ([]entity.Alert, error) {
	var alerts []entity.Alert
	if err := r.db.WithContext(ctx).Order("created_at").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindActive retrieves the alert rules eligible for evaluation.
func (r *alertRepository) FindActive(ctx context.Context) ([]entity.Alert, error) {
	var alerts []entity.Alert
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("created_at").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindByTicker retrieves all alert rules targeting one fund.
func (r *alertRepository) FindByTicker(ctx context.Context, ticker string) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("ticker = ?", entity.NormalizeTicker(ticker)).
		Order("created_at").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Update saves changes to an existing alert rule.
func (r *alertRepository) Update(ctx context.Context, alert *entity.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// Delete removes an alert rule.
func (r *alertRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Alert{}, "id = ?", id).Error
}
