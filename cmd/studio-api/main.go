package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studio-schedule-api/api/swagger"
	"github.com/noah-isme/studio-schedule-api/internal/handler"
	"github.com/noah-isme/studio-schedule-api/internal/repository"
	"github.com/noah-isme/studio-schedule-api/internal/router"
	"github.com/noah-isme/studio-schedule-api/internal/scheduling"
	"github.com/noah-isme/studio-schedule-api/internal/service"
	"github.com/noah-isme/studio-schedule-api/pkg/cache"
	"github.com/noah-isme/studio-schedule-api/pkg/config"
	"github.com/noah-isme/studio-schedule-api/pkg/database"
	"github.com/noah-isme/studio-schedule-api/pkg/jobs"
	"github.com/noah-isme/studio-schedule-api/pkg/logger"
)

// @title Studio Schedule API
// @version 1.0.0
// @description Weekly class schedule for a yoga studio: grid view, teacher assignment and conflict checks.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Schedule.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving the weekly grid without cache", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, logr, cacheRepo.Enabled())

	teacherSvc := service.NewTeacherService(repository.NewTeacherRepository(db), logr)
	scheduleSvc := service.NewScheduleService(
		repository.NewScheduleRepository(db),
		teacherSvc,
		cacheSvc,
		metrics,
		validator.New(),
		logr,
		service.ScheduleServiceConfig{
			Policy:       scheduling.NewPolicy(cfg.Schedule.AllowedDays),
			ConflictMode: cfg.Schedule.ConflictMode,
			CacheTTL:     cfg.Schedule.CacheTTL,
		},
	)
	exportSvc := service.NewExportService(scheduleSvc, logr)
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	refreshQueue := jobs.NewQueue("grid-refresh", scheduleSvc.RefreshGrid, jobs.QueueConfig{
		Workers:    cfg.Schedule.RefreshWorkers,
		BufferSize: 16,
		MaxRetries: cfg.Schedule.RefreshRetries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	scheduleSvc.UseQueue(refreshQueue)

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo
	}

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         tokens,
		Observer:       metrics,
		Audit:          repository.NewAuditRepository(db),
		Schedules:      handler.NewScheduleHandler(scheduleSvc, exportSvc),
		Teachers:       handler.NewTeacherHandler(teacherSvc),
		Metrics:        handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "conflictMode", cfg.Schedule.ConflictMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
