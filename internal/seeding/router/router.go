// Package router provides seeding module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/tournament_sync/internal/seeding/handler"
	"github.com/festy23/tournament_sync/internal/seeding/service"
	"github.com/festy23/tournament_sync/internal/tournament/repository"
)

// RegisterRoutes registers seeding module routes.
func RegisterRoutes(r *gin.Engine, repo repository.Repository, logger *zap.SugaredLogger) {
	svc := service.New(repo, logger)
	h := handler.New(svc, logger)

	r.GET("/api/v1/divisions/:id/seeding", h.GetDivisionSeeding)
}
