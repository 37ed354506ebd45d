// Package main runs the registration management HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/evolve-africa/backend/config"
	"github.com/evolve-africa/backend/internal/middleware"
	"github.com/evolve-africa/backend/internal/registrations"
	"github.com/evolve-africa/backend/pkg/database"
	"github.com/evolve-africa/backend/pkg/queue"
	"github.com/evolve-africa/backend/pkg/redis"
	"github.com/evolve-africa/backend/pkg/response"
	"github.com/evolve-africa/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Confirmation emails are best-effort: without Redis the service still
	// accepts registrations, it just skips the queue.
	var notifier registrations.Notifier
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, confirmation emails disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		notifier = queue.NewQueue(rdb.Client, logger)
	}

	var archiver registrations.Archiver
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ExportsBucket:   cfg.AWS.ExportsBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 export archival disabled", zap.Error(err))
		} else {
			archiver = s3Client
		}
	}

	repo := registrations.NewRepository(pool)
	svc := registrations.NewService(repo, notifier, archiver, logger)
	handler := registrations.NewHandler(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, "ok", nil) })

	router.POST("/register", handler.Register)
	router.GET("/registrations", handler.List)
	router.GET("/registrations/search", handler.FilterStrict)
	router.GET("/filter", handler.Filter)
	router.DELETE("/delete/:id", handler.Delete)
	router.GET("/export/excel", handler.ExportExcel)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
