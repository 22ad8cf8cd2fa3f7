// Package service provides the reconciliation engine: it merges record
// bundles fetched from the external source into persistent storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/feed/client"
	feedModel "github.com/festy23/tournament_sync/internal/feed/model"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// matchBatchSize is how many match upserts are committed per transaction.
// Batched commits bound lock duration; correctness under a mid-run crash
// relies on every upsert being idempotent, not on full-run atomicity.
const matchBatchSize = 200

// minResyncInterval guards against hammering the source: an unforced run for
// a tournament synced more recently than this is skipped without a sync run.
const minResyncInterval = time.Hour

// SyncStats summarizes one reconciliation run.
type SyncStats struct {
	Total             int `json:"total"`
	Created           int `json:"created"`
	Updated           int `json:"updated"`
	Skipped           int `json:"skipped"`
	DuplicatesRemoved int `json:"duplicates_removed"`
}

// Service defines the interface for reconciliation operations.
type Service interface {
	// SyncTournament fetches and reconciles a tracked tournament by id.
	// With force=false a tournament synced within the last hour is skipped.
	SyncTournament(ctx context.Context, tournamentID int64, force bool) (*SyncStats, error)

	// SyncByExternalID fetches and reconciles a tracked tournament by its
	// source identifier.
	SyncByExternalID(ctx context.Context, externalID string, force bool) (*SyncStats, error)

	// SyncBySourceURL fetches and reconciles a source URL directly. A URL
	// already tracked resolves to its tournament and behaves like
	// SyncTournament; otherwise the tournament row is created on first
	// successful ingest of a new external id.
	SyncBySourceURL(ctx context.Context, sourceURL string, force bool) (*SyncStats, error)
}

type service struct {
	repo    repository.Repository
	fetcher client.Fetcher
	locks   *lockRegistry
	logger  *zap.SugaredLogger
}

// New creates a new reconciliation service instance.
func New(repo repository.Repository, fetcher client.Fetcher, logger *zap.SugaredLogger) Service {
	return &service{
		repo:    repo,
		fetcher: fetcher,
		locks:   newLockRegistry(),
		logger:  logger,
	}
}

// SyncTournament fetches and reconciles a tracked tournament by id.
func (s *service) SyncTournament(ctx context.Context, tournamentID int64, force bool) (*SyncStats, error) {
	t, err := s.repo.GetTournamentByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, t, t.URL, force)
}

// SyncByExternalID fetches and reconciles a tracked tournament by its
// source identifier.
func (s *service) SyncByExternalID(ctx context.Context, externalID string, force bool) (*SyncStats, error) {
	t, err := s.repo.GetTournamentByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, t, t.URL, force)
}

// SyncBySourceURL fetches and reconciles a source URL directly. Resolving a
// tracked URL to its tournament up front keeps both manual paths serialized
// on the same external-id lock.
func (s *service) SyncBySourceURL(ctx context.Context, sourceURL string, force bool) (*SyncStats, error) {
	t, err := s.repo.GetTournamentByURL(ctx, sourceURL)
	switch {
	case err == nil:
		return s.run(ctx, t, sourceURL, force)
	case errors.Is(err, tournamentModel.ErrTournamentNotFound):
		return s.run(ctx, nil, sourceURL, force)
	default:
		return nil, err
	}
}

// run drives one reconciliation attempt end to end: lock, freshness guard,
// audit row, fetch, merge, finalize.
func (s *service) run(ctx context.Context, t *tournamentModel.Tournament, sourceURL string, force bool) (*SyncStats, error) {
	// The registration path has no external id until the bundle arrives, so
	// it serializes on the source URL first and picks up the external-id
	// lock once the fetch names the tournament. Every tracked path, the
	// scheduler included, locks on the external id.
	lockKey := sourceURL
	if t != nil {
		lockKey = t.ExternalID
	}
	if !s.locks.tryAcquire(lockKey) {
		return nil, tournamentModel.ErrSyncInProgress
	}
	defer s.locks.release(lockKey)

	now := time.Now().UTC()
	if t != nil && !force && t.LastSyncedAt != nil {
		if since := now.Sub(*t.LastSyncedAt); since < minResyncInterval {
			s.logger.Infow("tournament synced recently, skipping",
				"tournament_id", t.ID,
				"minutes_since_sync", int(since.Minutes()))
			return &SyncStats{}, nil
		}
	}

	var run *tournamentModel.SyncRun
	if t != nil {
		run = &tournamentModel.SyncRun{
			TournamentID: t.ID,
			Status:       tournamentModel.SyncRunStatusRunning,
			StartedAt:    now,
		}
		if err := s.repo.CreateSyncRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create sync run: %w", err)
		}
	}

	bundle, err := s.fetcher.FetchBundle(ctx, sourceURL)
	if err != nil {
		s.failRun(ctx, run, nil, err)
		return nil, err
	}

	// A registration run may still target an already-tracked tournament
	// (same external id behind a changed URL). Take the external-id lock
	// before touching its rows so it cannot interleave with a by-id run.
	if t == nil && bundle.Tournament.ExternalID != "" && bundle.Tournament.ExternalID != lockKey {
		if !s.locks.tryAcquire(bundle.Tournament.ExternalID) {
			return nil, tournamentModel.ErrSyncInProgress
		}
		defer s.locks.release(bundle.Tournament.ExternalID)
	}

	stats := &SyncStats{}
	t, err = s.reconcile(ctx, t, bundle, sourceURL, stats)
	if err != nil {
		s.failRun(ctx, run, stats, err)
		return stats, err
	}

	// The registration path can only attach an audit row once the
	// tournament exists.
	if run == nil {
		run = &tournamentModel.SyncRun{
			TournamentID: t.ID,
			Status:       tournamentModel.SyncRunStatusRunning,
			StartedAt:    now,
		}
		if err := s.repo.CreateSyncRun(ctx, run); err != nil {
			return stats, fmt.Errorf("failed to create sync run: %w", err)
		}
	}

	completed := time.Now().UTC()
	run.Status = tournamentModel.SyncRunStatusSucceeded
	run.CompletedAt = &completed
	run.Total = stats.Total
	run.Created = stats.Created
	run.Updated = stats.Updated
	run.Skipped = stats.Skipped
	run.DuplicatesRemoved = stats.DuplicatesRemoved
	if err := s.repo.SaveSyncRun(ctx, run); err != nil {
		return stats, fmt.Errorf("failed to finalize sync run: %w", err)
	}

	t.LastSyncedAt = &completed
	if err := s.repo.SaveTournament(ctx, t); err != nil {
		return stats, fmt.Errorf("failed to record sync time: %w", err)
	}

	s.logger.Infow("reconciliation succeeded",
		"tournament_id", t.ID,
		"external_id", t.ExternalID,
		"total", stats.Total,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"duplicates_removed", stats.DuplicatesRemoved)

	return stats, nil
}

// failRun finalizes the audit row after a run-level failure. Already
// committed batches stay in place: every upsert step is idempotent, so a
// replay converges instead of duplicating.
func (s *service) failRun(ctx context.Context, run *tournamentModel.SyncRun, stats *SyncStats, cause error) {
	s.logger.Errorw("reconciliation failed", "error", cause)
	if run == nil {
		return
	}
	completed := time.Now().UTC()
	run.Status = tournamentModel.SyncRunStatusFailed
	run.CompletedAt = &completed
	run.ErrorMessage = cause.Error()
	if stats != nil {
		run.Total = stats.Total
		run.Created = stats.Created
		run.Updated = stats.Updated
		run.Skipped = stats.Skipped
		run.DuplicatesRemoved = stats.DuplicatesRemoved
	}
	if err := s.repo.SaveSyncRun(ctx, run); err != nil {
		s.logger.Errorw("failed to finalize failed sync run",
			"sync_run_id", run.ID, "error", err)
	}
}

// reconcile merges one bundle into storage. Each stage commits on its own
// boundary; record-level problems become counters and never abort the run,
// persistence failures abort the remaining stages.
func (s *service) reconcile(
	ctx context.Context,
	t *tournamentModel.Tournament,
	bundle *feedModel.Bundle,
	sourceURL string,
	stats *SyncStats,
) (*tournamentModel.Tournament, error) {
	if bundle.Tournament.ExternalID == "" {
		return t, feedModel.ErrInvalidBundle
	}

	t, err := s.upsertTournament(ctx, t, &bundle.Tournament, sourceURL)
	if err != nil {
		return t, fmt.Errorf("tournament upsert failed: %w", err)
	}

	divisionsByName, err := s.upsertDivisions(ctx, t, bundle.Divisions)
	if err != nil {
		return t, fmt.Errorf("division upsert failed: %w", err)
	}

	if err := s.upsertMatches(ctx, divisionsByName, bundle.Matches, stats); err != nil {
		return t, fmt.Errorf("match upsert failed: %w", err)
	}

	if err := s.upsertStandings(ctx, divisionsByName, bundle.Standings, stats); err != nil {
		return t, fmt.Errorf("standing upsert failed: %w", err)
	}

	removed, err := s.repo.DeleteDuplicateMatches(ctx, t.ID)
	if err != nil {
		return t, fmt.Errorf("duplicate cleanup failed: %w", err)
	}
	stats.DuplicatesRemoved = int(removed)
	if removed > 0 {
		s.logger.Infow("removed duplicate matches",
			"tournament_id", t.ID, "count", removed)
	}

	if err := s.deriveTournamentDates(ctx, t); err != nil {
		return t, fmt.Errorf("date derivation failed: %w", err)
	}

	return t, nil
}

// upsertTournament creates the tournament on first ingest of a new external
// id, or updates it. Incoming empty fields never overwrite stored values.
func (s *service) upsertTournament(
	ctx context.Context,
	t *tournamentModel.Tournament,
	rec *feedModel.TournamentRecord,
	sourceURL string,
) (*tournamentModel.Tournament, error) {
	if t == nil {
		existing, err := s.repo.GetTournamentByExternalID(ctx, rec.ExternalID)
		switch {
		case err == nil:
			t = existing
		case err == tournamentModel.ErrTournamentNotFound:
			// fallthrough to create
		default:
			return nil, err
		}
	}

	if t == nil {
		name := rec.Name
		if name == "" {
			name = fmt.Sprintf("Tournament %s", rec.ExternalID)
		}
		t = &tournamentModel.Tournament{
			ExternalID: rec.ExternalID,
			Name:       name,
			Location:   rec.Location,
			URL:        sourceURL,
			StartDate:  rec.StartDate,
			EndDate:    rec.EndDate,
			Status:     tournamentModel.TournamentStatusActive,
		}
		if err := s.repo.CreateTournament(ctx, t); err != nil {
			return nil, err
		}
		s.logger.Infow("created tournament",
			"tournament_id", t.ID, "external_id", t.ExternalID, "name", t.Name)
		return t, nil
	}

	if rec.Name != "" {
		t.Name = rec.Name
	}
	if rec.Location != "" {
		t.Location = rec.Location
	}
	if rec.StartDate != nil {
		t.StartDate = rec.StartDate
	}
	if rec.EndDate != nil {
		t.EndDate = rec.EndDate
	}
	t.URL = sourceURL
	if err := s.repo.SaveTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// upsertDivisions matches divisions by name within the tournament, creating
// absent ones and opportunistically refreshing optional fields.
func (s *service) upsertDivisions(
	ctx context.Context,
	t *tournamentModel.Tournament,
	records []feedModel.DivisionRecord,
) (map[string]*tournamentModel.Division, error) {
	existing, err := s.repo.ListDivisions(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*tournamentModel.Division, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	result := make(map[string]*tournamentModel.Division, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}

		div, ok := byName[rec.Name]
		if !ok {
			div = &tournamentModel.Division{
				TournamentID: t.ID,
				Name:         rec.Name,
				ExternalID:   rec.ExternalID,
				AgeGroup:     rec.AgeGroup,
				Gender:       rec.Gender,
			}
			byName[rec.Name] = div
		} else {
			if rec.ExternalID != "" {
				div.ExternalID = rec.ExternalID
			}
			if rec.AgeGroup != "" {
				div.AgeGroup = rec.AgeGroup
			}
			if rec.Gender != "" {
				div.Gender = rec.Gender
			}
		}

		if err := s.repo.SaveDivision(ctx, div); err != nil {
			return nil, err
		}
		result[rec.Name] = div
	}

	return result, nil
}

// matchNumberKey identifies a match by division and external match number.
type matchNumberKey struct {
	divisionID int64
	number     string
}

// matchSignatureKey identifies a match by its full scheduling signature.
type matchSignatureKey struct {
	divisionID int64
	home       string
	away       string
	date       string
	time       string
}

// matchExternalKey identifies a match by division and source id.
type matchExternalKey struct {
	divisionID int64
	externalID string
}

// upsertMatches merges match records using the three-tier matching strategy:
// external id, then external match number, then exact signature. First hit
// wins. New and matched rows join the lookup tables immediately so duplicate
// records inside one bundle converge to a single persisted row.
func (s *service) upsertMatches(
	ctx context.Context,
	divisionsByName map[string]*tournamentModel.Division,
	records []feedModel.MatchRecord,
	stats *SyncStats,
) error {
	divisionIDs := make([]int64, 0, len(divisionsByName))
	for _, d := range divisionsByName {
		divisionIDs = append(divisionIDs, d.ID)
	}

	existing, err := s.repo.ListMatchesByDivisionIDs(ctx, divisionIDs)
	if err != nil {
		return err
	}

	byExternal := make(map[matchExternalKey]*tournamentModel.Match)
	byNumber := make(map[matchNumberKey]*tournamentModel.Match)
	bySignature := make(map[matchSignatureKey]*tournamentModel.Match)
	for i := range existing {
		m := &existing[i]
		indexMatch(m, byExternal, byNumber, bySignature)
	}

	var creates []*tournamentModel.Match
	updates := make(map[*tournamentModel.Match]struct{})
	batchCount := 0

	flush := func() error {
		updateList := make([]*tournamentModel.Match, 0, len(updates))
		for m := range updates {
			updateList = append(updateList, m)
		}
		if err := s.repo.SaveMatches(ctx, creates, updateList); err != nil {
			return err
		}
		creates = creates[:0]
		clear(updates)
		batchCount = 0
		return nil
	}

	for _, rec := range records {
		stats.Total++

		div, ok := divisionsByName[rec.DivisionName]
		if !ok {
			s.logger.Warnw("no division for match record, skipping",
				"division_name", rec.DivisionName,
				"home", rec.HomeTeamName,
				"away", rec.AwayTeamName)
			stats.Skipped++
			continue
		}

		var m *tournamentModel.Match
		if rec.ExternalID != "" {
			m = byExternal[matchExternalKey{div.ID, rec.ExternalID}]
		}
		if m == nil && rec.ExternalNumber != "" {
			m = byNumber[matchNumberKey{div.ID, rec.ExternalNumber}]
		}
		if m == nil && rec.HomeTeamName != "" && rec.AwayTeamName != "" && rec.Date != nil && rec.Time != "" {
			m = bySignature[signatureForRecord(div.ID, &rec)]
		}

		if m != nil {
			applyMatchRecord(m, &rec)
			if m.ID != 0 {
				updates[m] = struct{}{}
			}
			stats.Updated++
		} else {
			m = newMatchFromRecord(div.ID, &rec)
			creates = append(creates, m)
			stats.Created++
		}
		indexMatch(m, byExternal, byNumber, bySignature)

		batchCount++
		if batchCount >= matchBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if batchCount > 0 || len(creates) > 0 || len(updates) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	return nil
}

// indexMatch registers a match under every lookup key it currently has.
func indexMatch(
	m *tournamentModel.Match,
	byExternal map[matchExternalKey]*tournamentModel.Match,
	byNumber map[matchNumberKey]*tournamentModel.Match,
	bySignature map[matchSignatureKey]*tournamentModel.Match,
) {
	if m.ExternalID != "" {
		byExternal[matchExternalKey{m.DivisionID, m.ExternalID}] = m
	}
	if m.ExternalNumber != "" {
		byNumber[matchNumberKey{m.DivisionID, m.ExternalNumber}] = m
	}
	if m.HomeTeamName != "" && m.AwayTeamName != "" && m.MatchDate != nil && m.MatchTime != "" {
		bySignature[matchSignatureKey{
			divisionID: m.DivisionID,
			home:       m.HomeTeamName,
			away:       m.AwayTeamName,
			date:       m.MatchDate.UTC().Format(time.DateOnly),
			time:       m.MatchTime,
		}] = m
	}
}

func signatureForRecord(divisionID int64, rec *feedModel.MatchRecord) matchSignatureKey {
	return matchSignatureKey{
		divisionID: divisionID,
		home:       rec.HomeTeamName,
		away:       rec.AwayTeamName,
		date:       rec.Date.UTC().Format(time.DateOnly),
		time:       rec.Time,
	}
}

// newMatchFromRecord builds a match row from an incoming record.
func newMatchFromRecord(divisionID int64, rec *feedModel.MatchRecord) *tournamentModel.Match {
	status := rec.Status
	if status == "" {
		status = tournamentModel.MatchStatusScheduled
	}
	return &tournamentModel.Match{
		DivisionID:     divisionID,
		ExternalID:     rec.ExternalID,
		ExternalNumber: rec.ExternalNumber,
		HomeTeamName:   rec.HomeTeamName,
		AwayTeamName:   rec.AwayTeamName,
		MatchDate:      rec.Date,
		MatchTime:      rec.Time,
		VenueName:      rec.VenueName,
		HomeScore:      rec.HomeScore,
		AwayScore:      rec.AwayScore,
		Status:         status,
	}
}

// applyMatchRecord overwrites only the fields the record supplies; a partial
// update never nulls out previously known data.
func applyMatchRecord(m *tournamentModel.Match, rec *feedModel.MatchRecord) {
	if rec.ExternalID != "" {
		m.ExternalID = rec.ExternalID
	}
	if rec.ExternalNumber != "" {
		m.ExternalNumber = rec.ExternalNumber
	}
	if rec.HomeTeamName != "" {
		m.HomeTeamName = rec.HomeTeamName
	}
	if rec.AwayTeamName != "" {
		m.AwayTeamName = rec.AwayTeamName
	}
	if rec.Date != nil {
		m.MatchDate = rec.Date
	}
	if rec.Time != "" {
		m.MatchTime = rec.Time
	}
	if rec.VenueName != "" {
		m.VenueName = rec.VenueName
	}
	if rec.HomeScore != nil {
		m.HomeScore = rec.HomeScore
	}
	if rec.AwayScore != nil {
		m.AwayScore = rec.AwayScore
	}
	if rec.Status != "" {
		m.Status = rec.Status
	}
}

// standingKey identifies a standing row by division, bracket and team.
type standingKey struct {
	divisionID int64
	bracket    string
	team       string
}

// upsertStandings matches by (division, bracket, team) and fully overwrites
// the numeric fields, which the source always supplies in full.
func (s *service) upsertStandings(
	ctx context.Context,
	divisionsByName map[string]*tournamentModel.Division,
	records []feedModel.StandingRecord,
	stats *SyncStats,
) error {
	divisionIDs := make([]int64, 0, len(divisionsByName))
	for _, d := range divisionsByName {
		divisionIDs = append(divisionIDs, d.ID)
	}

	existing, err := s.repo.ListStandingsByDivisionIDs(ctx, divisionIDs)
	if err != nil {
		return err
	}

	byKey := make(map[standingKey]*tournamentModel.BracketStanding, len(existing))
	for i := range existing {
		st := &existing[i]
		byKey[standingKey{st.DivisionID, st.BracketName, st.TeamName}] = st
	}

	var creates, updates []*tournamentModel.BracketStanding
	for _, rec := range records {
		div, ok := divisionsByName[rec.DivisionName]
		if !ok || rec.TeamName == "" {
			s.logger.Warnw("no division for standing record, skipping",
				"division_name", rec.DivisionName, "team", rec.TeamName)
			stats.Skipped++
			continue
		}

		key := standingKey{div.ID, rec.BracketName, rec.TeamName}
		st, ok := byKey[key]
		if !ok {
			st = &tournamentModel.BracketStanding{
				DivisionID:  div.ID,
				BracketName: rec.BracketName,
				TeamName:    rec.TeamName,
			}
			byKey[key] = st
			creates = append(creates, st)
		} else if st.ID != 0 {
			updates = append(updates, st)
		}

		st.Played = rec.Played
		st.Wins = rec.Wins
		st.Draws = rec.Draws
		st.Losses = rec.Losses
		st.GoalsFor = rec.GoalsFor
		st.GoalsAgainst = rec.GoalsAgainst
		st.GoalDifference = rec.GoalDifference
		st.Points = rec.Points
	}

	return s.repo.SaveStandings(ctx, creates, updates)
}

// deriveTournamentDates sets the tournament window from the min/max match
// dates, but only before the first successful sync or while either date is
// missing. Established dates are stable facts: a later partial scrape must
// not narrow the window.
func (s *service) deriveTournamentDates(ctx context.Context, t *tournamentModel.Tournament) error {
	if t.StartDate != nil && t.EndDate != nil && t.LastSyncedAt != nil {
		return nil
	}

	minDate, maxDate, err := s.repo.MatchDateRange(ctx, t.ID)
	if err != nil {
		return err
	}
	if minDate == nil || maxDate == nil {
		s.logger.Warnw("no match dates to derive tournament window from",
			"tournament_id", t.ID)
		return nil
	}

	changed := false
	if t.StartDate == nil || !t.StartDate.Equal(*minDate) {
		t.StartDate = minDate
		changed = true
	}
	if t.EndDate == nil || !t.EndDate.Equal(*maxDate) {
		t.EndDate = maxDate
		changed = true
	}
	if !changed {
		return nil
	}

	s.logger.Infow("derived tournament dates",
		"tournament_id", t.ID, "start", minDate, "end", maxDate)
	return s.repo.SaveTournament(ctx, t)
}
