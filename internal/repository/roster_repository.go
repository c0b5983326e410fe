package repository

import (
	"context"
	"time"

	"feed-sync-service/internal/models"
	"gorm.io/gorm"
)

// RosterRepositoryInterface defines the shop SKU roster operations
type RosterRepositoryInterface interface {
	LoadSKUs(ctx context.Context) (map[string]struct{}, error)
	Replace(ctx context.Context, skus []string) error
	Count(ctx context.Context) (int64, error)
}

// RosterRepository persists the cached roster of SKUs known to the shop
type RosterRepository struct {
	db *gorm.DB
}

// Ensure RosterRepository implements the interface
var _ RosterRepositoryInterface = (*RosterRepository)(nil)

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// LoadSKUs returns the cached roster as a set
func (r *RosterRepository) LoadSKUs(ctx context.Context) (map[string]struct{}, error) {
	var skus []string
	if err := r.db.WithContext(ctx).Model(&models.ShopSKU{}).Pluck("sku", &skus).Error; err != nil {
		return nil, err
	}

	roster := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		roster[sku] = struct{}{}
	}
	return roster, nil
}

// Replace overwrites the roster wholesale in one transaction
func (r *RosterRepository) Replace(ctx context.Context, skus []string) error {
	now := time.Now()
	entries := make([]models.ShopSKU, 0, len(skus))
	for _, sku := range skus {
		entries = append(entries, models.ShopSKU{SKU: sku, RefreshedAt: now})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ShopSKU{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 500).Error
	})
}

// Count returns the number of SKUs in the roster
func (r *RosterRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ShopSKU{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
