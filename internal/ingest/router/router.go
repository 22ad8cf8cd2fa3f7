// Package router provides sync module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/ingest/handler"
	"github.com/festy23/tournament_sync/internal/ingest/service"
)

// RegisterRoutes registers sync trigger routes.
func RegisterRoutes(r *gin.Engine, svc service.Service, logger *zap.SugaredLogger) {
	h := handler.New(svc, logger)

	r.POST("/api/v1/sync", h.TriggerSync)
}
