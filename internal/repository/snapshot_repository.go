package repository

import (
	"context"
	"time"

	"feed-sync-service/internal/models"
	"gorm.io/gorm"
)

// SnapshotRepositoryInterface defines the snapshot store operations
type SnapshotRepositoryInterface interface {
	Load(ctx context.Context, feed string) (map[string]int64, error)
	Replace(ctx context.Context, feed string, values map[string]int64) error
}

// SnapshotRepository persists the last synced value per SKU for each feed
type SnapshotRepository struct {
	db *gorm.DB
}

// Ensure SnapshotRepository implements the interface
var _ SnapshotRepositoryInterface = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load returns the feed's snapshot as a SKU to value map. An empty map, not
// an error, is the legitimate first-run state.
func (r *SnapshotRepository) Load(ctx context.Context, feed string) (map[string]int64, error) {
	var entries []models.SnapshotEntry
	if err := r.db.WithContext(ctx).Where("feed = ?", feed).Find(&entries).Error; err != nil {
		return nil, err
	}

	snapshot := make(map[string]int64, len(entries))
	for _, entry := range entries {
		snapshot[entry.SKU] = entry.Value
	}
	return snapshot, nil
}

// Replace overwrites the feed's snapshot wholesale in one transaction. Other
// feeds' snapshots are untouched.
func (r *SnapshotRepository) Replace(ctx context.Context, feed string, values map[string]int64) error {
	now := time.Now()
	entries := make([]models.SnapshotEntry, 0, len(values))
	for sku, value := range values {
		entries = append(entries, models.SnapshotEntry{
			Feed:      feed,
			SKU:       sku,
			Value:     value,
			UpdatedAt: now,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feed = ?", feed).Delete(&models.SnapshotEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 500).Error
	})
}
