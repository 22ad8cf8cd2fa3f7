// Package service provides the seeding calculator for division standings.
package service

import (
	"context"

	"go.uber.org/zap"

	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// Service defines the interface for seeding queries.
type Service interface {
	// GetDivisionSeeding computes the seeding order for a division.
	// A division with no persisted standings yields ErrNoStandings: it was
	// never synced, which is different from an empty result.
	GetDivisionSeeding(ctx context.Context, divisionID int64) (*SeedingResult, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new seeding service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{repo: repo, logger: logger}
}

// GetDivisionSeeding computes the seeding order for a division.
func (s *service) GetDivisionSeeding(ctx context.Context, divisionID int64) (*SeedingResult, error) {
	if _, err := s.repo.GetDivisionByID(ctx, divisionID); err != nil {
		return nil, err
	}

	standings, err := s.repo.ListStandingsByDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if len(standings) == 0 {
		return nil, tournamentModel.ErrNoStandings
	}

	result := ComputeSeeding(standings)
	return &result, nil
}
