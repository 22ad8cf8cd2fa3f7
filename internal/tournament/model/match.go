package model

import (
	"time"

	"gorm.io/gorm"
)

// Match status values.
const (
	MatchStatusScheduled  = "scheduled"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
	MatchStatusCancelled  = "cancelled"
	MatchStatusPostponed  = "postponed"
)

// Match represents one scheduled or played game within a division.
//
// MatchTime stays a raw string: the source re-publishes the same game with
// varying time formatting ("3:00 PM" vs "15:00"), so it participates in the
// signature lookup verbatim and is excluded from the duplicate-cleanup
// grouping.
type Match struct {
	ID             int64      `gorm:"primaryKey;column:id;autoIncrement"                                                                            json:"id"`
	DivisionID     int64      `gorm:"column:division_id;not null;index:idx_matches_division_external,priority:1;index:idx_matches_division_number,priority:1;index:idx_matches_signature,priority:1" json:"division_id"`
	ExternalID     string     `gorm:"column:external_id;type:varchar(50);index:idx_matches_division_external,priority:2"       json:"external_id,omitempty"`
	ExternalNumber string     `gorm:"column:external_number;type:varchar(50);index:idx_matches_division_number,priority:2"     json:"external_number,omitempty"`
	HomeTeamName   string     `gorm:"column:home_team_name;type:varchar(255);index:idx_matches_signature,priority:2"           json:"home_team_name,omitempty"`
	AwayTeamName   string     `gorm:"column:away_team_name;type:varchar(255);index:idx_matches_signature,priority:3"           json:"away_team_name,omitempty"`
	MatchDate      *time.Time `gorm:"column:match_date;type:timestamptz;index:idx_matches_signature,priority:4"                json:"match_date,omitempty"`
	MatchTime      string     `gorm:"column:match_time;type:varchar(20);index:idx_matches_signature,priority:5"                json:"match_time,omitempty"`
	VenueName      string     `gorm:"column:venue_name;type:varchar(100)"                                                                           json:"venue_name,omitempty"`
	HomeScore      *int       `gorm:"column:home_score"                                                                                             json:"home_score,omitempty"`
	AwayScore      *int       `gorm:"column:away_score"                                                                                             json:"away_score,omitempty"`
	Status         string     `gorm:"column:status;type:varchar(20);not null;default:scheduled"                                                     json:"status"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"                                                     json:"-"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"                                                     json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Match) TableName() string {
	return "matches"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (m *Match) BeforeUpdate(tx *gorm.DB) error {
	m.UpdatedAt = time.Now()
	return nil
}
