// Package handler provides HTTP handlers for sync trigger endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	feedModel "github.com/festy23/tournament_sync/internal/feed/model"
	"github.com/festy23/tournament_sync/internal/ingest/service"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

// SyncRequest is the manual sync trigger payload. Exactly one of
// TournamentID, ExternalID or SourceURL selects the target.
type SyncRequest struct {
	TournamentID int64  `json:"tournament_id,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	Force        bool   `json:"force,omitempty"`
}

// Handler handles HTTP requests for sync endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new sync handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// TriggerSync handles POST /api/v1/sync requests.
func (h *Handler) TriggerSync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	var (
		stats *service.SyncStats
		err   error
	)
	switch {
	case req.TournamentID != 0:
		stats, err = h.service.SyncTournament(ctx, req.TournamentID, req.Force)
	case req.ExternalID != "":
		stats, err = h.service.SyncByExternalID(ctx, req.ExternalID, req.Force)
	case req.SourceURL != "":
		stats, err = h.service.SyncBySourceURL(ctx, req.SourceURL, req.Force)
	default:
		errorResponse(c, "INVALID_REQUEST",
			tournamentModel.ErrInvalidTournamentRef.Error(), http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, tournamentModel.ErrTournamentNotFound) {
			notFoundResponse(c, "tournament not found")
			return
		}
		if errors.Is(err, tournamentModel.ErrSyncInProgress) {
			errorResponse(c, "SYNC_IN_PROGRESS",
				"a sync is already running for this tournament", http.StatusConflict)
			return
		}
		if errors.Is(err, feedModel.ErrSourceUnavailable) || errors.Is(err, feedModel.ErrInvalidBundle) {
			errorResponse(c, "SOURCE_UNAVAILABLE",
				"schedule source could not be fetched", http.StatusBadGateway)
			return
		}
		h.logger.Errorw("sync trigger failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
