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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/schoolops/board-api/api/swagger"
	"github.com/schoolops/board-api/internal/board"
	"github.com/schoolops/board-api/internal/handler"
	"github.com/schoolops/board-api/internal/middleware"
	"github.com/schoolops/board-api/internal/models"
	"github.com/schoolops/board-api/internal/repository"
	"github.com/schoolops/board-api/internal/service"
	"github.com/schoolops/board-api/pkg/cache"
	"github.com/schoolops/board-api/pkg/config"
	"github.com/schoolops/board-api/pkg/database"
	"github.com/schoolops/board-api/pkg/jobs"
	"github.com/schoolops/board-api/pkg/logger"
	corsmiddleware "github.com/schoolops/board-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolops/board-api/pkg/middleware/requestid"
	"github.com/schoolops/board-api/pkg/storage"
)

// @title Board API
// @version 1.0.0
// @description Per-teacher daily lesson boards with gap-aware time cascades
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without board cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Board.CacheTTL, logr, true)
	}

	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	boardSvc := service.NewBoardService(eventRepo, cacheSvc, metricsSvc, nil, logr, service.BoardServiceConfig{
		Settings: board.Settings{
			StepMinutes:        cfg.Board.StepMinutes,
			MinDurationMinutes: cfg.Board.MinDurationMinutes,
			RequiredGapMinutes: cfg.Board.RequiredGapMinutes,
		},
		IdleTTL:  cfg.Board.IdleTTL,
		CacheTTL: cfg.Board.CacheTTL,
	})
	adjustmentSvc := service.NewAdjustmentService(boardSvc, eventRepo, metricsSvc, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "board-api",
	})

	if err := bootstrapAdmin(ctx, cfg, userRepo, logr); err != nil {
		logr.Sugar().Fatalw("admin bootstrap failed", "error", err)
	}

	boardHandler := handler.NewBoardHandler(boardSvc)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/system", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.System)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	boards := api.Group("/boards", middleware.JWT(authSvc))
	boards.GET("/:date", boardHandler.GetDay)
	boards.GET("/:date/teachers/:teacherId", boardHandler.GetTeacher)
	boards.POST("/:date/teachers/:teacherId/events", boardHandler.CreateEvent)
	boards.PUT("/:date/teachers/:teacherId/location", boardHandler.SetQueueLocation)
	boards.POST("/:date/events/:eventId/move", boardHandler.MoveEvent)
	boards.POST("/:date/events/:eventId/resize", boardHandler.ResizeEvent)
	boards.POST("/:date/events/:eventId/reorder", boardHandler.ReorderEvent)
	boards.POST("/:date/events/:eventId/close-gap", boardHandler.CloseGap)
	boards.DELETE("/:date/events/:eventId", boardHandler.RemoveEvent)
	boards.PUT("/:date/events/:eventId/location", boardHandler.SetLocation)
	boards.PUT("/:date/events/:eventId/status", boardHandler.SetStatus)

	adjustment := boards.Group("/:date/adjustment", middleware.RequireRoles(models.RoleAdmin))
	adjustment.POST("", adjustmentHandler.Enter)
	adjustment.GET("", adjustmentHandler.State)
	adjustment.DELETE("", adjustmentHandler.Exit)
	adjustment.POST("/teachers/:teacherId", adjustmentHandler.OptIn)
	adjustment.DELETE("/teachers/:teacherId", adjustmentHandler.OptOut)
	adjustment.POST("/time", adjustmentHandler.ApplyTime)
	adjustment.POST("/adapt", adjustmentHandler.Adapt)
	adjustment.POST("/location", adjustmentHandler.ApplyLocation)
	adjustment.POST("/discard", adjustmentHandler.Discard)
	adjustment.POST("/commit", adjustmentHandler.Commit)

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportQueue, err = wireExports(ctx, cfg, db, boardSvc, authSvc, api, boards, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to wire exports", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown error", "error", err)
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}

// bootstrapAdmin seeds the first admin account when the users table is empty.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, userRepo *repository.UserRepository, logr *zap.Logger) error {
	if cfg.Bootstrap.AdminEmail == "" || cfg.Bootstrap.AdminPassword == "" {
		return nil
	}
	count, err := userRepo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Bootstrap.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        cfg.Bootstrap.AdminEmail,
		PasswordHash: string(hash),
		FullName:     cfg.Bootstrap.AdminName,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}
	logr.Sugar().Infow("seeded bootstrap admin", "email", admin.Email)
	return nil
}

// wireExports boots the day-sheet pipeline: local file storage, the signed URL
// scheme, the worker queue, and the export routes.
func wireExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	boardSvc *service.BoardService,
	authSvc *service.AuthService,
	api *gin.RouterGroup,
	boards *gin.RouterGroup,
	logr *zap.Logger,
) (*jobs.Queue, error) {
	localStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(boardSvc, localStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	exportRepo := repository.NewExportRepository(db)
	worker := service.NewExportWorker(exportRepo, exporter, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	jobSvc := service.NewExportJobService(exportRepo, queue, exporter, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	jobSvc.RecoverPendingJobs(ctx)
	jobSvc.StartCleanup(ctx)

	exportHandler := handler.NewExportHandler(jobSvc)
	boards.GET("/:date/export", exportHandler.Create)
	exports := api.Group("/exports")
	exports.GET("/:jobId", middleware.JWT(authSvc), exportHandler.Status)
	exports.GET("/download/:token", exportHandler.Download)
	return queue, nil
}
