package model

import (
	"time"

	"gorm.io/gorm"
)

// BracketStanding represents a team's aggregated record within a named
// bracket of a division. The numeric fields arrive fully computed from the
// source; the service never derives W/D/L or points itself.
type BracketStanding struct {
	ID             int64     `gorm:"primaryKey;column:id;autoIncrement"                                                             json:"id"`
	DivisionID     int64     `gorm:"column:division_id;not null;uniqueIndex:idx_standings_division_bracket_team"                    json:"division_id"`
	BracketName    string    `gorm:"column:bracket_name;type:varchar(100);not null;uniqueIndex:idx_standings_division_bracket_team" json:"bracket_name"`
	TeamName       string    `gorm:"column:team_name;type:varchar(255);not null;uniqueIndex:idx_standings_division_bracket_team"    json:"team_name"`
	Played         int       `gorm:"column:played;not null;default:0"                                                               json:"played"`
	Wins           int       `gorm:"column:wins;not null;default:0"                                                                 json:"wins"`
	Draws          int       `gorm:"column:draws;not null;default:0"                                                                json:"draws"`
	Losses         int       `gorm:"column:losses;not null;default:0"                                                               json:"losses"`
	GoalsFor       int       `gorm:"column:goals_for;not null;default:0"                                                            json:"goals_for"`
	GoalsAgainst   int       `gorm:"column:goals_against;not null;default:0"                                                        json:"goals_against"`
	GoalDifference int       `gorm:"column:goal_difference;not null;default:0"                                                      json:"goal_difference"`
	Points         int       `gorm:"column:points;not null;default:0"                                                               json:"points"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"                                      json:"-"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"                                      json:"-"`
}

// TableName specifies the table name for GORM.
func (BracketStanding) TableName() string {
	return "bracket_standings"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (s *BracketStanding) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}
