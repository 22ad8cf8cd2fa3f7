package model

import "errors"

var (
	// ErrTournamentNotFound indicates that the requested tournament does not exist.
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrDivisionNotFound indicates that the requested division does not exist.
	ErrDivisionNotFound = errors.New("division not found")
	// ErrNoStandings indicates that a division has no persisted standings,
	// which means it was never synced (distinct from an empty seeding result).
	ErrNoStandings = errors.New("no standings recorded for division")
	// ErrSyncInProgress indicates that a reconciliation run is already in
	// flight for the tournament; overlapping runs are rejected, never interleaved.
	ErrSyncInProgress = errors.New("sync already in progress for tournament")
	// ErrInvalidTournamentRef indicates that no tournament selector was
	// supplied: a sync target needs an id, an external id or a source URL.
	ErrInvalidTournamentRef = errors.New("tournament_id, external_id or source_url is required")
)
