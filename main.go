package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/config"
	"github.com/EllieChoi1998/poc-backend/handler"
	"github.com/EllieChoi1998/poc-backend/middleware"
	"github.com/EllieChoi1998/poc-backend/pkg/logger"
	"github.com/EllieChoi1998/poc-backend/repository"
	"github.com/EllieChoi1998/poc-backend/service"
	"github.com/EllieChoi1998/poc-backend/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Open database; Open also runs migrations
	db, err := repository.Open(cfg.Database.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Select storage backend
	store, err := newStore(cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	contractRepo := repository.NewContractRepository(db)
	ocrRepo := repository.NewOcrRepository(db)

	// Initialize services
	userSvc := service.NewUserService(userRepo)
	if err := userSvc.EnsureSystemAccount(context.Background(), &cfg.System); err != nil {
		slog.Error("failed to ensure system account", "error", err)
		os.Exit(1)
	}

	ocrEngine, err := service.NewOcrEngine(cfg.Ocr.LicenseKey, cfg.Ocr.ServerAddr)
	if err != nil {
		slog.Error("failed to initialize OCR engine", "error", err)
		os.Exit(1)
	}

	ocrSvc := service.NewOcrService(ocrEngine, ocrRepo, store, cfg.Ocr.MaxWorkers)
	contractSvc := service.NewContractService(contractRepo, ocrRepo, userSvc, ocrSvc, store)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userSvc, &cfg.Auth)
	contractHandler := handler.NewContractHandler(contractSvc)
	ocrHandler := handler.NewOcrHandler(ocrEngine)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, time.Minute)) // Per-client rate limiting

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.ListAll)
		protected.GET("/contracts/uploaded", contractHandler.ListUploaded)
		protected.GET("/contracts/checklist-on-progress", contractHandler.ListChecklistOnProgress)
		protected.GET("/contracts/checklist-finished", contractHandler.ListChecklistFinished)
		protected.GET("/contracts/keypoint-on-progress", contractHandler.ListKeypointOnProgress)
		protected.GET("/contracts/keypoint-finished", contractHandler.ListKeypointFinished)
		protected.POST("/contracts/:id/process-checklist", contractHandler.ProcessChecklist)
		protected.POST("/contracts/:id/finish-checklist", contractHandler.FinishChecklist)
		protected.POST("/contracts/:id/process-keypoint", contractHandler.ProcessKeypoint)
		protected.POST("/contracts/:id/finish-keypoint", contractHandler.FinishKeypoint)
		protected.GET("/contracts/:id/ocr-result", contractHandler.GetOcrResult)
		protected.GET("/contracts/:id/ocr-status", contractHandler.GetOcrStatus)
		protected.DELETE("/contracts/:id", contractHandler.Delete)

		protected.POST("/ocr/download-file", ocrHandler.DownloadFile)
		protected.GET("/ocr/worker-status", ocrHandler.WorkerStatus)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Drain queued and in-flight OCR jobs before exit
	slog.Info("waiting for OCR workers to finish...")
	ocrSvc.Shutdown()

	slog.Info("server exited gracefully")
}

// newStore builds the configured storage backend.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "minio":
		minioStore, err := storage.NewMinioStore(&cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return minioStore, nil
	case "local":
		return storage.NewLocalStore(cfg.Storage.Local.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
