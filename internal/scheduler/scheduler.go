// Package scheduler drives periodic reconciliation of tracked tournaments,
// tightening the polling interval while a tournament is in play.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appConfig "github.com/festy23/tournament_sync/internal/config"
	ingestService "github.com/festy23/tournament_sync/internal/ingest/service"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// Status describes the scheduling state of one tournament.
type Status struct {
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	NextRunAt     time.Time  `json:"next_run_at"`
	IntervalHours float64    `json:"interval_hours"`
}

// Scheduler enumerates active tournaments on a fixed tick and reconciles the
// ones that are due. It is constructed once at process start and passed by
// handle to whatever needs to trigger or query it.
type Scheduler struct {
	cfg    appConfig.SchedulerConfig
	repo   repository.Repository
	ingest ingestService.Service
	logger *zap.SugaredLogger
	stop   chan struct{}
	done   chan struct{}
}

// New creates a new scheduler instance.
func New(
	cfg appConfig.SchedulerConfig,
	repo repository.Repository,
	ingest ingestService.Service,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		repo:   repo,
		ingest: ingest,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background tick loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Infow("starting scheduler",
		"tick_interval", s.cfg.TickInterval,
		"base_interval", s.cfg.BaseInterval,
		"active_interval", s.cfg.ActiveInterval,
		"max_concurrent_runs", s.cfg.MaxConcurrentRuns)
	go s.loop(ctx)
}

// Stop shuts the loop down and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Infow("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// First pass immediately so never-synced tournaments don't wait out a
	// full tick after startup.
	s.checkAndSync(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.checkAndSync(ctx)
		}
	}
}

// checkAndSync reconciles every due tournament, fanning out with a bounded
// concurrency limit. Run failures are logged and never crash the loop; the
// next tick re-evaluates each tournament independently.
func (s *Scheduler) checkAndSync(ctx context.Context) {
	tournaments, err := s.repo.ListTournamentsByStatus(ctx, tournamentModel.TournamentStatusActive)
	if err != nil {
		s.logger.Errorw("failed to list active tournaments", "error", err)
		return
	}

	now := time.Now().UTC()
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrentRuns)

	due := 0
	for i := range tournaments {
		t := tournaments[i]
		if !s.ShouldRun(&t, now) {
			continue
		}
		due++
		g.Go(func() error {
			if _, err := s.ingest.SyncTournament(ctx, t.ID, false); err != nil {
				if errors.Is(err, tournamentModel.ErrSyncInProgress) {
					s.logger.Debugw("sync already in flight, skipping",
						"tournament_id", t.ID)
					return nil
				}
				s.logger.Errorw("scheduled sync failed",
					"tournament_id", t.ID,
					"external_id", t.ExternalID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Infow("scheduler tick complete",
		"checked", len(tournaments), "due", due)
}

// TriggerSync runs reconciliation for one tournament outside the tick
// schedule. force bypasses the freshness guard but still serializes against
// any run already in flight for the tournament.
func (s *Scheduler) TriggerSync(ctx context.Context, tournamentID int64, force bool) (*ingestService.SyncStats, error) {
	return s.ingest.SyncTournament(ctx, tournamentID, force)
}

// StatusFor reports the scheduling state of one tournament.
func (s *Scheduler) StatusFor(t *tournamentModel.Tournament, now time.Time) Status {
	return Status{
		LastSyncedAt:  t.LastSyncedAt,
		NextRunAt:     s.NextRunTime(t, now),
		IntervalHours: s.Interval(t, now).Hours(),
	}
}
