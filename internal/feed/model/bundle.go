// Package model defines the record bundle contract produced by the external
// schedule extractor. The extractor owns all markup parsing and key
// normalization; the reconciliation engine consumes these fully normalized
// records and never branches on raw source shapes.
package model

import "time"

// Bundle is one normalized snapshot of a tournament as published by the
// external source. All optional fields are pointers or zero-valued strings;
// absence means "the source did not supply it this time", never "clear the
// stored value".
type Bundle struct {
	Tournament TournamentRecord `json:"tournament"`
	Divisions  []DivisionRecord `json:"divisions"`
	Matches    []MatchRecord    `json:"matches"`
	Standings  []StandingRecord `json:"standings"`
}

// TournamentRecord carries tournament-level fields from the source.
type TournamentRecord struct {
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name,omitempty"`
	Location   string     `json:"location,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	SourceURL  string     `json:"source_url"`
}

// DivisionRecord carries one division. Name is the natural key; the source
// does not reliably publish division identifiers.
type DivisionRecord struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
	AgeGroup   string `json:"age_group,omitempty"`
	Gender     string `json:"gender,omitempty"`
}

// MatchRecord carries one scheduled or played game. DivisionName links the
// record to its division; a record whose division cannot be resolved is
// malformed and gets skipped.
type MatchRecord struct {
	DivisionName   string     `json:"division_name"`
	ExternalID     string     `json:"external_id,omitempty"`
	ExternalNumber string     `json:"external_match_number,omitempty"`
	HomeTeamName   string     `json:"home_team_name,omitempty"`
	AwayTeamName   string     `json:"away_team_name,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	Time           string     `json:"time,omitempty"`
	VenueName      string     `json:"venue_name,omitempty"`
	HomeScore      *int       `json:"home_score,omitempty"`
	AwayScore      *int       `json:"away_score,omitempty"`
	Status         string     `json:"status,omitempty"`
}

// StandingRecord carries one team's aggregated bracket record. The numeric
// fields are always fully supplied by the source.
type StandingRecord struct {
	DivisionName   string `json:"division_name"`
	BracketName    string `json:"bracket_name,omitempty"`
	TeamName       string `json:"team_name"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}
