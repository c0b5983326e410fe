package repository

import (
	"context"

	"feed-sync-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunRepositoryInterface defines sync run record operations
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Update(ctx context.Context, run *models.SyncRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SyncRun, error)
	List(ctx context.Context, feed string, limit int) ([]models.SyncRun, error)
}

// RunRepository handles database operations for sync runs
type RunRepository struct {
	db *gorm.DB
}

// Ensure RunRepository implements the interface
var _ RunRepositoryInterface = (*RunRepository)(nil)

// NewRunRepository creates a new run repository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create creates a new sync run record
func (r *RunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update updates an existing sync run record
func (r *RunRepository) Update(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves a sync run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	var run models.SyncRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves the most recent sync runs, optionally filtered by feed
func (r *RunRepository) List(ctx context.Context, feed string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if feed != "" {
		query = query.Where("feed = ?", feed)
	}

	var runs []models.SyncRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
