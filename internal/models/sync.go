package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a sync run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// TriggerType represents what triggered the run
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerAPI       TriggerType = "API"
)

// RunStats accumulates the counters of one sync run. It is owned by the run
// and merged into the SyncRun record when the run finishes; recoverable
// outcomes (unresolved SKUs, failed batches) live here rather than in errors.
type RunStats struct {
	TotalSeen        int `gorm:"default:0" json:"totalSeen"`
	Changed          int `gorm:"default:0" json:"changed"`
	Resolved         int `gorm:"default:0" json:"resolved"`
	Unresolved       int `gorm:"default:0" json:"unresolved"`
	BatchesSucceeded int `gorm:"default:0" json:"batchesSucceeded"`
	BatchesFailed    int `gorm:"default:0" json:"batchesFailed"`
	ItemsUpdated     int `gorm:"default:0" json:"itemsUpdated"`
	ItemsFailed      int `gorm:"default:0" json:"itemsFailed"`
}

// SyncRun represents a single execution of a feed sync
type SyncRun struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Feed string    `gorm:"type:varchar(100);not null;index:idx_sync_runs_feed" json:"feed"`

	Status      RunStatus   `gorm:"type:varchar(50);not null;default:'RUNNING';index:idx_sync_runs_status" json:"status"`
	TriggeredBy TriggerType `gorm:"type:varchar(50)" json:"triggeredBy,omitempty"`

	Stats RunStats `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`

	ErrorMessage string `gorm:"type:text" json:"errorMessage,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for SyncRun
func (SyncRun) TableName() string {
	return "sync_runs"
}
