package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/akinfemi/timetable/internal/app"
	"github.com/akinfemi/timetable/internal/config"
	"github.com/akinfemi/timetable/internal/repository"
	"github.com/akinfemi/timetable/internal/server"
	"github.com/akinfemi/timetable/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Sugar().Fatalw("Failed to create connection pool", "error", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Sugar().Fatalw("Failed to create migrator", "error", err)
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Sugar().Fatalw("Failed to apply migrations", "error", err)
	}
	migrator.Close()

	slotRepo := repository.NewSlotRepository(pool)
	changeRepo := repository.NewChangeRepository(pool)

	sessions := service.NewSessionManager()
	timetableService := service.NewTimetableService(slotRepo, changeRepo, logger)
	approvalService := service.NewApprovalService(slotRepo, changeRepo, logger)

	srv := server.New(
		cfg.HTTPAddr,
		[]byte(cfg.JWTSecret),
		cfg.Environment,
		timetableService,
		approvalService,
		sessions,
		logger,
	)

	logger.Sugar().Infow("Starting timetable service",
		"environment", cfg.Environment,
		"addr", cfg.HTTPAddr)

	if err := srv.Run(ctx); err != nil {
		logger.Sugar().Fatalw("Server stopped with error", "error", err)
	}
}
