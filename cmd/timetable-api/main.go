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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-builder/api/swagger"
	"github.com/noah-isme/timetable-builder/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-builder/internal/middleware"
	"github.com/noah-isme/timetable-builder/internal/repository"
	"github.com/noah-isme/timetable-builder/internal/service"
	"github.com/noah-isme/timetable-builder/pkg/config"
	"github.com/noah-isme/timetable-builder/pkg/jobs"
	"github.com/noah-isme/timetable-builder/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-builder/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-builder/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-builder/pkg/storage"
)

// @title Timetable Builder API
// @version 1.0.0
// @description Local JSON API over the semester collection
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	medium, closeMedium, err := openMedium(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeMedium() //nolint:errcheck

	storeOpts := repository.StoreOptions{Key: cfg.Storage.Key, MaxBytes: cfg.Storage.MaxBytes, Logger: logr}
	if metrics != nil {
		storeOpts.Observer = metrics
	}
	store := repository.NewSemesterStore(medium, storeOpts)

	var lock *service.WriterLock
	if metrics != nil {
		lock = service.NewWriterLock(metrics)
	} else {
		lock = service.NewWriterLock(nil)
	}

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare exports directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	semesters := service.NewSemesterService(store, lock, service.NewValidator(), logr)
	transfer := service.NewTransferService(store, lock, exportFiles, signer, nil,
		service.TransferConfig{APIPrefix: cfg.APIPrefix, ExportTTL: cfg.Exports.SignedURLTTL}, logr)

	if cfg.Exports.BackupsEnabled {
		backups := jobs.NewQueue("backups", transfer.BackupHandler(), jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Exports.BackupRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		backups.Start(context.Background())
		defer backups.Stop()
		transfer.SetBackupQueue(backups)
	}

	go sweepExports(ctx, transfer, cfg.Exports.SignedURLTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if _, err := store.LoadAll(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	routes := handler.Routes{
		Semesters:  handler.NewSemesterHandler(semesters),
		Timetables: handler.NewTimetableHandler(semesters, transfer),
		Transfer:   handler.NewTransferHandler(transfer, semesters, cfg.Storage.MaxBytes),
	}
	if metrics != nil {
		routes.Metrics = metricsHandler
	}
	handler.Register(r.Group(cfg.APIPrefix), routes)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

func sweepExports(ctx context.Context, transfer *service.TransferService, every time.Duration, logr *zap.Logger) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := transfer.CleanupExports(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
