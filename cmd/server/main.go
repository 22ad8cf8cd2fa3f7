// Package main provides the entry point for the tournament sync server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	appConfig "github.com/festy23/tournament_sync/internal/config"
	"github.com/festy23/tournament_sync/internal/database"
	"github.com/festy23/tournament_sync/internal/database/migrate"
	feedClient "github.com/festy23/tournament_sync/internal/feed/client"
	"github.com/festy23/tournament_sync/internal/health"
	ingestRouter "github.com/festy23/tournament_sync/internal/ingest/router"
	ingestService "github.com/festy23/tournament_sync/internal/ingest/service"
	"github.com/festy23/tournament_sync/internal/middleware"
	"github.com/festy23/tournament_sync/internal/scheduler"
	seedingRouter "github.com/festy23/tournament_sync/internal/seeding/router"
	tournamentRepo "github.com/festy23/tournament_sync/internal/tournament/repository"
	tournamentRouter "github.com/festy23/tournament_sync/internal/tournament/router"
	"github.com/festy23/tournament_sync/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := appConfig.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.New()
	if err != nil {
		zapLogger.Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			zapLogger.Errorw("failed to close database", "error", closeErr)
		}
	}()

	if err := migrate.Migrate(db); err != nil {
		zapLogger.Fatalw("failed to apply migrations", "error", err)
	}

	repo := tournamentRepo.New(db)
	fetcher := feedClient.New(cfg.Feed, zapLogger)
	ingest := ingestService.New(repo, fetcher, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(cfg.Scheduler, repo, ingest, zapLogger)
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Recovery(zapLogger))
	r.Use(middleware.Logger(zapLogger))

	healthHandler := health.New(db, zapLogger)
	r.GET("/health", healthHandler.Check)

	ingestRouter.RegisterRoutes(r, ingest, zapLogger)
	seedingRouter.RegisterRoutes(r, repo, zapLogger)
	tournamentRouter.RegisterRoutes(r, repo, sched, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLogger.Infow("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatalw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	zapLogger.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Errorw("server shutdown failed", "error", err)
	}
}
