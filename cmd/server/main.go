package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/atelier-apps/atelier-admin-api/api/swagger"
	"github.com/atelier-apps/atelier-admin-api/internal/handler"
	"github.com/atelier-apps/atelier-admin-api/internal/middleware"
	"github.com/atelier-apps/atelier-admin-api/internal/migrate"
	"github.com/atelier-apps/atelier-admin-api/internal/repository"
	"github.com/atelier-apps/atelier-admin-api/internal/service"
	"github.com/atelier-apps/atelier-admin-api/pkg/cache"
	"github.com/atelier-apps/atelier-admin-api/pkg/config"
	"github.com/atelier-apps/atelier-admin-api/pkg/database"
	"github.com/atelier-apps/atelier-admin-api/pkg/export"
	"github.com/atelier-apps/atelier-admin-api/pkg/logger"
	corsmiddleware "github.com/atelier-apps/atelier-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atelier-apps/atelier-admin-api/pkg/middleware/requestid"
)

// @title Atelier Admin API
// @version 1.0.0
// @description Administration backend for a small tutoring studio
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrate.RunOnStartup {
		if err := migrate.Up(context.Background(), db.DB); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	statsSvc := service.NewStatsService(studentRepo, sessionRepo, cacheRepo, cfg.Stats, logr).WithMetrics(metricsSvc)
	accountingSvc := service.NewAccountingService(studentRepo, sessionRepo, coachRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, statsSvc, validate, logr)
	coachSvc := service.NewCoachService(coachRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, studentRepo, statsSvc, validate, logr)
	authSvc := service.NewAuthService(cfg.Auth, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewExportService(statsSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, accountingSvc)
	coachHandler := handler.NewCoachHandler(coachSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	planningHandler := handler.NewPlanningHandler(accountingSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, exportSvc)
	maintenanceHandler := handler.NewMaintenanceHandler(accountingSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/students", studentHandler.List)
	protected.GET("/students/overview", studentHandler.Overview)
	protected.POST("/students", studentHandler.Create)
	protected.GET("/students/:id", studentHandler.Get)
	protected.PATCH("/students/:id", studentHandler.Update)
	protected.DELETE("/students/:id", studentHandler.Delete)
	protected.GET("/students/:id/lessons", studentHandler.Lessons)
	protected.GET("/students/:id/package-status", studentHandler.PackageStatus)

	protected.GET("/coaches", coachHandler.List)
	protected.POST("/coaches", coachHandler.Create)
	protected.GET("/coaches/:id", coachHandler.Get)
	protected.PATCH("/coaches/:id", coachHandler.Update)
	protected.DELETE("/coaches/:id", coachHandler.Delete)

	protected.GET("/sessions", sessionHandler.List)
	protected.GET("/sessions/calendar", sessionHandler.Month)
	protected.POST("/sessions", sessionHandler.Schedule)
	protected.GET("/sessions/:id", sessionHandler.Get)
	protected.PUT("/sessions/:id", sessionHandler.Update)
	protected.DELETE("/sessions/:id", sessionHandler.Delete)
	protected.POST("/sessions/:id/students", sessionHandler.AssignStudent)
	protected.PATCH("/sessions/:id/students/:studentId", sessionHandler.SetStudentStatus)
	protected.DELETE("/sessions/:id/students/:studentId", sessionHandler.RemoveStudent)

	protected.GET("/planning/triage", planningHandler.Triage)

	protected.GET("/stats/monthly", statsHandler.Monthly)
	protected.GET("/stats/yearly", statsHandler.Yearly)
	protected.GET("/stats/monthly/export", statsHandler.ExportMonthly)
	protected.GET("/stats/yearly/export", statsHandler.ExportYearly)

	protected.POST("/maintenance/repair-package-dates", maintenanceHandler.RepairPackageDates)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
