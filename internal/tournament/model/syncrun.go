package model

import "time"

// SyncRun status values.
const (
	SyncRunStatusPending   = "pending"
	SyncRunStatusRunning   = "running"
	SyncRunStatusSucceeded = "succeeded"
	SyncRunStatusFailed    = "failed"
)

// SyncRun is the audit record of one reconciliation attempt for a
// tournament. A row is created before the fetch starts and finalized exactly
// once; completed rows are never mutated again.
type SyncRun struct {
	ID                int64      `gorm:"primaryKey;column:id;autoIncrement"                            json:"id"`
	TournamentID      int64      `gorm:"column:tournament_id;not null;index:idx_sync_runs_tournament"  json:"tournament_id"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;default:pending"       json:"status"`
	StartedAt         time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"     json:"started_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at;type:timestamptz"                          json:"completed_at,omitempty"`
	ErrorMessage      string     `gorm:"column:error_message;type:text"                                json:"error_message,omitempty"`
	Total             int        `gorm:"column:total;not null;default:0"                               json:"total"`
	Created           int        `gorm:"column:created;not null;default:0"                             json:"created"`
	Updated           int        `gorm:"column:updated;not null;default:0"                             json:"updated"`
	Skipped           int        `gorm:"column:skipped;not null;default:0"                             json:"skipped"`
	DuplicatesRemoved int        `gorm:"column:duplicates_removed;not null;default:0"                  json:"duplicates_removed"`
}

// TableName specifies the table name for GORM.
func (SyncRun) TableName() string {
	return "sync_runs"
}
