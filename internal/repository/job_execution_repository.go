package repository

import (
	"context"

	"golang-fii-analyzer/internal/entity"

	"gorm.io/gorm"
)

// JobExecutionRepository defines the interface for job execution history.
type JobExecutionRepository interface {
	Create(ctx context.Context, execution *entity.JobExecution) error
	Update(ctx context.Context, execution *entity.JobExecution) error
	FindByJobID(ctx context.Context, jobID string) (*entity.JobExecution, error)
	FindRecent(ctx context.Context, limit int) ([]entity.JobExecution, error)
}

// NewJobExecutionRepository creates a new GORM-based job execution repository.
func NewJobExecutionRepository(db *gorm.DB) JobExecutionRepository {
	return &jobExecutionRepository{db: db}
}

type jobExecutionRepository struct {
	db *gorm.DB
}

// Create records a new job execution.
func (r *jobExecutionRepository) Create(ctx context.Context, execution *entity.JobExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

// Update saves the outcome of a finished job execution.
func (r *jobExecutionRepository) Update(ctx context.Context, execution *entity.JobExecution) error {
	return r.db.WithContext(ctx).Save(execution).Error
}

// FindByJobID retrieves one execution by its job ID.
func (r *jobExecutionRepository) FindByJobID(ctx context.Context, jobID string) (*entity.JobExecution, error) {
	var execution entity.JobExecution
	if err := r.db.WithContext(ctx).First(&execution, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &execution, nil
}

// FindRecent retrieves the most recently started executions.
func (r *jobExecutionRepository) FindRecent(ctx context.Context, limit int) ([]entity.JobExecution, error) {
	var executions []entity.JobExecution
	q := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}
