// Package router provides tournament module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/scheduler"
	"github.com/festy23/tournament_sync/internal/tournament/handler"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// RegisterRoutes registers tournament module routes.
func RegisterRoutes(r *gin.Engine, repo repository.Repository, sched *scheduler.Scheduler, logger *zap.SugaredLogger) {
	h := handler.New(repo, sched, logger)

	r.GET("/api/v1/tournaments", h.ListTournaments)
	r.GET("/api/v1/tournaments/:id", h.GetTournament)
	r.GET("/api/v1/tournaments/:id/games", h.GetTournamentGames)
	r.GET("/api/v1/tournaments/:id/sync-runs", h.ListSyncRuns)
	r.GET("/api/v1/tournaments/:id/schedule-status", h.GetScheduleStatus)
	r.GET("/api/v1/divisions/:id/games", h.GetDivisionGames)
}
