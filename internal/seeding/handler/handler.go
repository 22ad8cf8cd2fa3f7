// Package handler provides HTTP handlers for seeding endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/seeding/service"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

// Handler handles HTTP requests for seeding endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new seeding handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetDivisionSeeding handles GET /api/v1/divisions/:id/seeding requests.
func (h *Handler) GetDivisionSeeding(c *gin.Context) {
	divisionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "division id must be an integer", http.StatusBadRequest)
		return
	}

	result, err := h.service.GetDivisionSeeding(c.Request.Context(), divisionID)
	if err != nil {
		if errors.Is(err, tournamentModel.ErrDivisionNotFound) {
			notFoundResponse(c, "division not found")
			return
		}
		if errors.Is(err, tournamentModel.ErrNoStandings) {
			notFoundResponse(c, "no standings recorded for division")
			return
		}
		h.logger.Errorw("seeding query failed", "division_id", divisionID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, result)
}
