// Package handler provides HTTP handlers for tournament read endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/scheduler"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// syncRunHistoryLimit caps how many audit rows one request returns.
const syncRunHistoryLimit = 20

// Handler handles HTTP requests for tournament endpoints.
type Handler struct {
	repo   repository.Repository
	sched  *scheduler.Scheduler
	logger *zap.SugaredLogger
}

// New creates a new tournament handler instance.
func New(repo repository.Repository, sched *scheduler.Scheduler, logger *zap.SugaredLogger) *Handler {
	return &Handler{repo: repo, sched: sched, logger: logger}
}

// ListTournaments handles GET /api/v1/tournaments requests.
func (h *Handler) ListTournaments(c *gin.Context) {
	tournaments, err := h.repo.ListTournaments(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list tournaments", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"tournaments": tournaments,
	})
}

// GetTournament handles GET /api/v1/tournaments/:id requests.
func (h *Handler) GetTournament(c *gin.Context) {
	id, ok := h.tournamentID(c)
	if !ok {
		return
	}

	t, err := h.repo.GetTournamentWithDivisions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, tournamentModel.ErrTournamentNotFound) {
			notFoundResponse(c, "tournament not found")
			return
		}
		h.logger.Errorw("failed to load tournament", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, t)
}

// ListSyncRuns handles GET /api/v1/tournaments/:id/sync-runs requests.
func (h *Handler) ListSyncRuns(c *gin.Context) {
	id, ok := h.tournamentID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetTournamentByID(ctx, id); err != nil {
		if errors.Is(err, tournamentModel.ErrTournamentNotFound) {
			notFoundResponse(c, "tournament not found")
			return
		}
		h.logger.Errorw("failed to load tournament", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	runs, err := h.repo.ListSyncRuns(ctx, id, syncRunHistoryLimit)
	if err != nil {
		h.logger.Errorw("failed to list sync runs", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sync_runs": runs,
	})
}

// GetTournamentGames handles GET /api/v1/tournaments/:id/games requests.
// Optional query filters: division_id, date (YYYY-MM-DD), team, status.
func (h *Handler) GetTournamentGames(c *gin.Context) {
	id, ok := h.tournamentID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetTournamentByID(ctx, id); err != nil {
		if errors.Is(err, tournamentModel.ErrTournamentNotFound) {
			notFoundResponse(c, "tournament not found")
			return
		}
		h.logger.Errorw("failed to load tournament", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	filter, ok := gameFilter(c)
	if !ok {
		return
	}

	games, err := h.repo.ListTournamentGames(ctx, id, filter)
	if err != nil {
		h.logger.Errorw("failed to list games", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"games": games,
	})
}

// GetDivisionGames handles GET /api/v1/divisions/:id/games requests.
func (h *Handler) GetDivisionGames(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "division id must be an integer", http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetDivisionByID(ctx, id); err != nil {
		if errors.Is(err, tournamentModel.ErrDivisionNotFound) {
			notFoundResponse(c, "division not found")
			return
		}
		h.logger.Errorw("failed to load division", "division_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	games, err := h.repo.ListDivisionGames(ctx, id)
	if err != nil {
		h.logger.Errorw("failed to list games", "division_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"games": games,
	})
}

// gameFilter parses the game listing query parameters, writing the error
// response itself.
func gameFilter(c *gin.Context) (repository.MatchFilter, bool) {
	var filter repository.MatchFilter
	if raw := c.Query("division_id"); raw != "" {
		divisionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errorResponse(c, "INVALID_REQUEST", "division_id must be an integer", http.StatusBadRequest)
			return filter, false
		}
		filter.DivisionID = divisionID
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			errorResponse(c, "INVALID_REQUEST", "date must be formatted YYYY-MM-DD", http.StatusBadRequest)
			return filter, false
		}
		filter.Date = &date
	}
	filter.Team = c.Query("team")
	filter.Status = c.Query("status")
	return filter, true
}

// GetScheduleStatus handles GET /api/v1/tournaments/:id/schedule-status requests.
func (h *Handler) GetScheduleStatus(c *gin.Context) {
	id, ok := h.tournamentID(c)
	if !ok {
		return
	}

	t, err := h.repo.GetTournamentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, tournamentModel.ErrTournamentNotFound) {
			notFoundResponse(c, "tournament not found")
			return
		}
		h.logger.Errorw("failed to load tournament", "tournament_id", id, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, h.sched.StatusFor(t, time.Now().UTC()))
}

// tournamentID parses the :id path parameter, writing the error response itself.
func (h *Handler) tournamentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "tournament id must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
