package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SscSPs/school_finance_core/internal/core/services"
	"github.com/SscSPs/school_finance_core/internal/handlers"
	"github.com/SscSPs/school_finance_core/internal/jobs"
	"github.com/SscSPs/school_finance_core/internal/middleware"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
	"github.com/SscSPs/school_finance_core/internal/platform/storage"
)

// @title School Finance Core API
// @version 1.0
// @description Fee catalog, invoicing, payments, scholarships, waivers and collection analytics.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := storage.Open(ctx, cfg, true)
	if err != nil {
		logger.Error("Failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	serviceContainer := services.NewServiceContainer(cfg, repos)

	scheduler := jobs.NewScheduler(serviceContainer, logger)
	go scheduler.Run(ctx, cfg.LateFeeInterval, cfg.StatusRefreshInterval)

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to configure rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}
