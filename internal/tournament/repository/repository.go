// Package repository provides data access layer for tournament domain rows.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

// MatchFilter narrows a tournament game listing. Zero values mean the
// dimension is not filtered.
type MatchFilter struct {
	DivisionID int64
	Date       *time.Time
	Team       string
	Status     string
}

// Repository defines the interface for tournament data access operations.
type Repository interface {
	// GetTournamentByID finds a tournament by primary key.
	GetTournamentByID(ctx context.Context, id int64) (*tournamentModel.Tournament, error)

	// GetTournamentByExternalID finds a tournament by its source identifier.
	GetTournamentByExternalID(ctx context.Context, externalID string) (*tournamentModel.Tournament, error)

	// GetTournamentByURL finds a tournament by its source URL.
	GetTournamentByURL(ctx context.Context, url string) (*tournamentModel.Tournament, error)

	// GetTournamentWithDivisions finds a tournament with divisions preloaded.
	GetTournamentWithDivisions(ctx context.Context, id int64) (*tournamentModel.Tournament, error)

	// ListTournaments returns all tracked tournaments.
	ListTournaments(ctx context.Context) ([]tournamentModel.Tournament, error)

	// ListTournamentsByStatus returns all tournaments with the given lifecycle status.
	ListTournamentsByStatus(ctx context.Context, status string) ([]tournamentModel.Tournament, error)

	// CreateTournament inserts a new tournament.
	CreateTournament(ctx context.Context, t *tournamentModel.Tournament) error

	// SaveTournament persists changes to an existing tournament.
	SaveTournament(ctx context.Context, t *tournamentModel.Tournament) error

	// ListDivisions returns all divisions of a tournament.
	ListDivisions(ctx context.Context, tournamentID int64) ([]tournamentModel.Division, error)

	// GetDivisionByID finds a division by primary key.
	GetDivisionByID(ctx context.Context, id int64) (*tournamentModel.Division, error)

	// SaveDivision inserts or updates a division.
	SaveDivision(ctx context.Context, d *tournamentModel.Division) error

	// ListMatchesByDivisionIDs bulk-loads all matches of the given divisions.
	ListMatchesByDivisionIDs(ctx context.Context, divisionIDs []int64) ([]tournamentModel.Match, error)

	// SaveMatches persists one batch of match creates and updates in a
	// single transaction.
	SaveMatches(ctx context.Context, creates, updates []*tournamentModel.Match) error

	// CountMatches returns the number of matches across the given divisions.
	CountMatches(ctx context.Context, divisionIDs []int64) (int64, error)

	// ListTournamentGames returns the games of a tournament in schedule
	// order, narrowed by the filter.
	ListTournamentGames(ctx context.Context, tournamentID int64, filter MatchFilter) ([]tournamentModel.Match, error)

	// ListDivisionGames returns the games of one division in schedule order.
	ListDivisionGames(ctx context.Context, divisionID int64) ([]tournamentModel.Match, error)

	// ListStandingsByDivisionIDs bulk-loads standings of the given divisions.
	ListStandingsByDivisionIDs(ctx context.Context, divisionIDs []int64) ([]tournamentModel.BracketStanding, error)

	// ListStandingsByDivision returns the standings of one division.
	ListStandingsByDivision(ctx context.Context, divisionID int64) ([]tournamentModel.BracketStanding, error)

	// SaveStandings persists one batch of standing creates and updates in a
	// single transaction.
	SaveStandings(ctx context.Context, creates, updates []*tournamentModel.BracketStanding) error

	// DeleteDuplicateMatches removes duplicate matches within a tournament,
	// keeping the most recently updated row of each group.
	DeleteDuplicateMatches(ctx context.Context, tournamentID int64) (int64, error)

	// MatchDateRange returns the earliest and latest match dates of a
	// tournament, or nils when no dated matches exist.
	MatchDateRange(ctx context.Context, tournamentID int64) (*time.Time, *time.Time, error)

	// CreateSyncRun inserts a new sync run audit row.
	CreateSyncRun(ctx context.Context, run *tournamentModel.SyncRun) error

	// SaveSyncRun persists the finalized state of a sync run.
	SaveSyncRun(ctx context.Context, run *tournamentModel.SyncRun) error

	// ListSyncRuns returns recent sync runs of a tournament, newest first.
	ListSyncRuns(ctx context.Context, tournamentID int64, limit int) ([]tournamentModel.SyncRun, error)
}

type repository struct {
	db *gorm.DB
}

// New creates a new tournament repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetTournamentByID finds a tournament by primary key.
func (r *repository) GetTournamentByID(ctx context.Context, id int64) (*tournamentModel.Tournament, error) {
	var t tournamentModel.Tournament
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tournamentModel.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetTournamentByExternalID finds a tournament by its source identifier.
func (r *repository) GetTournamentByExternalID(ctx context.Context, externalID string) (*tournamentModel.Tournament, error) {
	var t tournamentModel.Tournament
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tournamentModel.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetTournamentByURL finds a tournament by its source URL.
func (r *repository) GetTournamentByURL(ctx context.Context, url string) (*tournamentModel.Tournament, error) {
	var t tournamentModel.Tournament
	err := r.db.WithContext(ctx).
		Where("url = ?", url).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tournamentModel.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetTournamentWithDivisions finds a tournament with divisions preloaded.
func (r *repository) GetTournamentWithDivisions(ctx context.Context, id int64) (*tournamentModel.Tournament, error) {
	var t tournamentModel.Tournament
	err := r.db.WithContext(ctx).
		Preload("Divisions").
		First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tournamentModel.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTournaments returns all tracked tournaments.
func (r *repository) ListTournaments(ctx context.Context) ([]tournamentModel.Tournament, error) {
	var tournaments []tournamentModel.Tournament
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&tournaments).Error
	if err != nil {
		return nil, err
	}
	return tournaments, nil
}

// ListTournamentsByStatus returns all tournaments with the given lifecycle status.
func (r *repository) ListTournamentsByStatus(ctx context.Context, status string) ([]tournamentModel.Tournament, error) {
	var tournaments []tournamentModel.Tournament
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&tournaments).Error
	if err != nil {
		return nil, err
	}
	return tournaments, nil
}

// CreateTournament inserts a new tournament.
func (r *repository) CreateTournament(ctx context.Context, t *tournamentModel.Tournament) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// SaveTournament persists changes to an existing tournament.
func (r *repository) SaveTournament(ctx context.Context, t *tournamentModel.Tournament) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// ListDivisions returns all divisions of a tournament.
func (r *repository) ListDivisions(ctx context.Context, tournamentID int64) ([]tournamentModel.Division, error) {
	var divisions []tournamentModel.Division
	err := r.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Find(&divisions).Error
	if err != nil {
		return nil, err
	}
	return divisions, nil
}

// GetDivisionByID finds a division by primary key.
func (r *repository) GetDivisionByID(ctx context.Context, id int64) (*tournamentModel.Division, error) {
	var d tournamentModel.Division
	err := r.db.WithContext(ctx).First(&d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tournamentModel.ErrDivisionNotFound
		}
		return nil, err
	}
	return &d, nil
}

// SaveDivision inserts or updates a division.
func (r *repository) SaveDivision(ctx context.Context, d *tournamentModel.Division) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// ListMatchesByDivisionIDs bulk-loads all matches of the given divisions.
// One query instead of one per record keeps reconciliation O(n).
func (r *repository) ListMatchesByDivisionIDs(ctx context.Context, divisionIDs []int64) ([]tournamentModel.Match, error) {
	if len(divisionIDs) == 0 {
		return []tournamentModel.Match{}, nil
	}
	var matches []tournamentModel.Match
	err := r.db.WithContext(ctx).
		Where("division_id IN ?", divisionIDs).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// SaveMatches persists one batch of match creates and updates in a single
// transaction. Batches are committed separately on purpose: one
// all-or-nothing transaction per run would hold storage locks for the whole
// reconciliation.
func (r *repository) SaveMatches(ctx context.Context, creates, updates []*tournamentModel.Match) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range creates {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		for _, m := range updates {
			if err := tx.Save(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountMatches returns the number of matches across the given divisions.
func (r *repository) CountMatches(ctx context.Context, divisionIDs []int64) (int64, error) {
	if len(divisionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&tournamentModel.Match{}).
		Where("division_id IN ?", divisionIDs).
		Count(&count).Error
	return count, err
}

// ListTournamentGames returns the games of a tournament in schedule order.
// The date filter spans the whole day so that stored timestamps with a time
// component still match a date-only query.
func (r *repository) ListTournamentGames(ctx context.Context, tournamentID int64, filter MatchFilter) ([]tournamentModel.Match, error) {
	query := r.db.WithContext(ctx).
		Model(&tournamentModel.Match{}).
		Select("matches.*").
		Joins("JOIN divisions d ON matches.division_id = d.id").
		Where("d.tournament_id = ?", tournamentID)
	if filter.DivisionID != 0 {
		query = query.Where("matches.division_id = ?", filter.DivisionID)
	}
	if filter.Date != nil {
		dayStart := time.Date(
			filter.Date.Year(), filter.Date.Month(), filter.Date.Day(),
			0, 0, 0, 0, time.UTC)
		query = query.Where(
			"matches.match_date >= ? AND matches.match_date < ?",
			dayStart, dayStart.Add(24*time.Hour))
	}
	if filter.Team != "" {
		query = query.Where(
			"matches.home_team_name = ? OR matches.away_team_name = ?",
			filter.Team, filter.Team)
	}
	if filter.Status != "" {
		query = query.Where("matches.status = ?", filter.Status)
	}

	var matches []tournamentModel.Match
	err := query.
		Order("matches.match_date ASC, matches.match_time ASC, matches.id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ListDivisionGames returns the games of one division in schedule order.
func (r *repository) ListDivisionGames(ctx context.Context, divisionID int64) ([]tournamentModel.Match, error) {
	var matches []tournamentModel.Match
	err := r.db.WithContext(ctx).
		Where("division_id = ?", divisionID).
		Order("match_date ASC, match_time ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ListStandingsByDivisionIDs bulk-loads standings of the given divisions.
func (r *repository) ListStandingsByDivisionIDs(ctx context.Context, divisionIDs []int64) ([]tournamentModel.BracketStanding, error) {
	if len(divisionIDs) == 0 {
		return []tournamentModel.BracketStanding{}, nil
	}
	var standings []tournamentModel.BracketStanding
	err := r.db.WithContext(ctx).
		Where("division_id IN ?", divisionIDs).
		Find(&standings).Error
	if err != nil {
		return nil, err
	}
	return standings, nil
}

// ListStandingsByDivision returns the standings of one division.
func (r *repository) ListStandingsByDivision(ctx context.Context, divisionID int64) ([]tournamentModel.BracketStanding, error) {
	var standings []tournamentModel.BracketStanding
	err := r.db.WithContext(ctx).
		Where("division_id = ?", divisionID).
		Order("bracket_name ASC, points DESC").
		Find(&standings).Error
	if err != nil {
		return nil, err
	}
	return standings, nil
}

// SaveStandings persists one batch of standing creates and updates in a
// single transaction.
func (r *repository) SaveStandings(ctx context.Context, creates, updates []*tournamentModel.BracketStanding) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range creates {
			if err := tx.Create(s).Error; err != nil {
				return err
			}
		}
		for _, s := range updates {
			if err := tx.Save(s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDuplicateMatches removes duplicate matches within a tournament using
// a window function, keeping the most recently updated row of each
// (division, home, away, date) group with ties broken by highest id.
//
// The grouping deliberately excludes match_time so that re-publications that
// differ only in time-string formatting collapse to one row. This also means
// two genuinely distinct games between the same teams on the same day would
// be merged; preserved as-is from the source system.
func (r *repository) DeleteDuplicateMatches(ctx context.Context, tournamentID int64) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM matches
		WHERE id IN (
			SELECT id FROM (
				SELECT m.id,
				       ROW_NUMBER() OVER (
				           PARTITION BY m.division_id, m.home_team_name, m.away_team_name, m.match_date
				           ORDER BY m.updated_at DESC, m.id DESC
				       ) AS rn
				FROM matches m
				JOIN divisions d ON m.division_id = d.id
				WHERE d.tournament_id = ?
			) ranked
			WHERE rn > 1
		)`, tournamentID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MatchDateRange returns the earliest and latest match dates of a tournament.
func (r *repository) MatchDateRange(ctx context.Context, tournamentID int64) (*time.Time, *time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&tournamentModel.Match{}).
		Joins("JOIN divisions d ON matches.division_id = d.id").
		Where("d.tournament_id = ? AND matches.match_date IS NOT NULL", tournamentID).
		Order("matches.match_date ASC").
		Pluck("matches.match_date", &dates).Error
	if err != nil {
		return nil, nil, err
	}
	if len(dates) == 0 {
		return nil, nil, nil
	}
	first := dates[0]
	last := dates[len(dates)-1]
	return &first, &last, nil
}

// CreateSyncRun inserts a new sync run audit row.
func (r *repository) CreateSyncRun(ctx context.Context, run *tournamentModel.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// SaveSyncRun persists the finalized state of a sync run.
func (r *repository) SaveSyncRun(ctx context.Context, run *tournamentModel.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListSyncRuns returns recent sync runs of a tournament, newest first.
func (r *repository) ListSyncRuns(ctx context.Context, tournamentID int64, limit int) ([]tournamentModel.SyncRun, error) {
	var runs []tournamentModel.SyncRun
	query := r.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
