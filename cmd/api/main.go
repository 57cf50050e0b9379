package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/noah-isme/kintai-api/api/swagger"
	"github.com/noah-isme/kintai-api/internal/handler"
	"github.com/noah-isme/kintai-api/internal/repository"
	"github.com/noah-isme/kintai-api/internal/service"
	"github.com/noah-isme/kintai-api/pkg/cache"
	"github.com/noah-isme/kintai-api/pkg/config"
	"github.com/noah-isme/kintai-api/pkg/database"
	"github.com/noah-isme/kintai-api/pkg/jobs"
	"github.com/noah-isme/kintai-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/kintai-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/kintai-api/pkg/middleware/requestid"
)

// @title Kintai API
// @version 1.0.0
// @description Employee attendance and daily report service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it the status endpoint just skips caching.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.StatusCacheTTL, logr, true)
		defer cacheRepo.Close() //nolint:errcheck
	}

	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "kintai-api",
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, metricsSvc, validate, logr, service.AttendanceConfig{
		MaxShiftHours:  cfg.Attendance.MaxShiftHours,
		StatusCacheTTL: cfg.Attendance.StatusCacheTTL,
		SweepGrace:     cfg.Attendance.Grace,
	})
	reportSvc := service.NewReportService(reportRepo, validate, logr)
	exportSvc := service.NewExportService(attendanceSvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, cfg, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Summary:    handler.NewSummaryHandler(attendanceSvc, exportSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}, authSvc, metricsSvc, userRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Attendance.AutoClockOut {
		sweepQueue := jobs.NewQueue("attendance-sweep", func(ctx context.Context, job jobs.Job) error {
			closed, err := attendanceSvc.SweepOverdue(ctx)
			if err != nil {
				return err
			}
			if closed > 0 {
				logr.Sugar().Infow("auto clock-out sweep finished", "closed", closed)
			}
			return nil
		}, jobs.QueueConfig{Workers: 1, Logger: logr})
		sweepQueue.Start(ctx)
		defer sweepQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Attendance.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := sweepQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "sweep"}); err != nil {
						logr.Warn("failed to enqueue attendance sweep", zap.Error(err))
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
