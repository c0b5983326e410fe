package models

import "time"

// SnapshotEntry is the last value synced for a SKU within one feed. The whole
// set for a feed is replaced at the end of each successful run; a SKU missing
// from the snapshot is treated as changed on the next run.
type SnapshotEntry struct {
	Feed      string    `gorm:"type:varchar(100);primaryKey" json:"feed"`
	SKU       string    `gorm:"type:varchar(255);primaryKey" json:"sku"`
	Value     int64     `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for SnapshotEntry
func (SnapshotEntry) TableName() string {
	return "feed_snapshots"
}

// ShopSKU is one entry of the cached roster of SKUs known to the shop,
// refreshed independently of feed runs and consumed as an allow-list by
// full catalog feeds.
type ShopSKU struct {
	SKU         string    `gorm:"type:varchar(255);primaryKey" json:"sku"`
	RefreshedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"refreshedAt"`
}

// TableName specifies the table name for ShopSKU
func (ShopSKU) TableName() string {
	return "shop_skus"
}
