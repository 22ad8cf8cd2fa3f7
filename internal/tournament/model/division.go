package model

import (
	"time"

	"gorm.io/gorm"
)

// Division represents an age/gender bracket of competition within a tournament.
// The name is the natural key within a tournament: the source does not
// guarantee a stable external identifier for divisions.
type Division struct {
	ID           int64     `gorm:"primaryKey;column:id;autoIncrement"                                            json:"id"`
	TournamentID int64     `gorm:"column:tournament_id;not null;uniqueIndex:idx_divisions_tournament_name"       json:"tournament_id"`
	ExternalID   string    `gorm:"column:external_id;type:varchar(50);index:idx_divisions_external"              json:"external_id,omitempty"`
	Name         string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_divisions_tournament_name" json:"name"`
	AgeGroup     string    `gorm:"column:age_group;type:varchar(50)"                                             json:"age_group,omitempty"`
	Gender       string    `gorm:"column:gender;type:varchar(20)"                                                json:"gender,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"                     json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"                     json:"-"`

	Matches   []Match           `gorm:"foreignKey:DivisionID;constraint:OnDelete:CASCADE" json:"matches,omitempty"`
	Standings []BracketStanding `gorm:"foreignKey:DivisionID;constraint:OnDelete:CASCADE" json:"standings,omitempty"`
}

// TableName specifies the table name for GORM.
func (Division) TableName() string {
	return "divisions"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (d *Division) BeforeUpdate(tx *gorm.DB) error {
	d.UpdatedAt = time.Now()
	return nil
}
