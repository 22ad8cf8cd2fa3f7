package model

import (
	"time"

	"gorm.io/gorm"
)

// Tournament status values.
const (
	TournamentStatusActive   = "active"
	TournamentStatusArchived = "archived"
)

// Tournament represents a tracked sporting event.
// Matches the tournaments table schema.
type Tournament struct {
	ID           int64      `gorm:"primaryKey;column:id;autoIncrement"                                 json:"id"`
	ExternalID   string     `gorm:"column:external_id;type:varchar(50);not null;uniqueIndex"           json:"external_id"`
	Name         string     `gorm:"column:name;type:varchar(255);not null"                             json:"name"`
	Location     string     `gorm:"column:location;type:varchar(255)"                                  json:"location,omitempty"`
	URL          string     `gorm:"column:url;type:varchar(500);not null"                              json:"url"`
	StartDate    *time.Time `gorm:"column:start_date;type:timestamptz"                                 json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date;type:timestamptz"                                   json:"end_date,omitempty"`
	Status       string     `gorm:"column:status;type:varchar(50);not null;default:active"             json:"status"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at;type:timestamptz"                             json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"          json:"-"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"          json:"-"`

	Divisions []Division `gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE" json:"divisions,omitempty"`
	SyncRuns  []SyncRun  `gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM.
func (Tournament) TableName() string {
	return "tournaments"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (t *Tournament) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}
