package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagecast/internal/core/services"
	httphandlers "stagecast/internal/handlers/http"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/monitoring"
	"stagecast/internal/infrastructure/opentok"
	repositories "stagecast/internal/infrastructure/repositories"
	"stagecast/pkg/config"
	"stagecast/pkg/logger"
	"stagecast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	if cfg.Vendor.APIKey == "" || cfg.Vendor.APISecret == "" {
		log.Fatal("vendor api key and secret must be configured (STAGECAST_API_KEY / STAGECAST_API_SECRET)")
	}

	// Tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "stagecast",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Repositories
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	sessionRepo := repoFactory.CreateSessionRepository()
	broadcastRepo := repoFactory.CreateBroadcastRepository()

	// Monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddSessionStoreCheck(sessionRepo, 30*time.Second, 2*time.Second)
	if redisClient := repoFactory.RedisClient(); redisClient != nil {
		healthChecker.AddRedisCheck(redisClient, 30*time.Second, 2*time.Second)
	}

	// Vendor client
	platform := opentok.NewClient(
		cfg.Vendor.APIKey,
		cfg.Vendor.APISecret,
		cfg.Vendor.APIURL,
		cfg.Vendor.RequestTimeout,
		log,
		prometheusCollector,
	)

	// Services
	credentialService := services.NewCredentialService(platform, sessionRepo, prometheusCollector, log)
	signalService := services.NewSignalService(platform, log)
	broadcastService := services.NewBroadcastService(platform, sessionRepo, broadcastRepo, signalService, prometheusCollector,
		cfg.Broadcast.PublishDelay, cfg.Broadcast.LayoutBreakPoint, log)
	speakerService := services.NewSpeakerService(broadcastService, prometheusCollector, log)
	renderService := services.NewRenderService(platform, cfg.Server.BaseURL, cfg.Broadcast.MaxRenderDuration, log)

	// HTTP handlers
	pageHandler := httphandlers.NewPageHandler(credentialService)
	broadcastHandler := httphandlers.NewBroadcastHandler(broadcastService, speakerService)
	renderHandler := httphandlers.NewRenderHandler(renderService)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLoggerMiddleware(zapLogger))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	router.LoadHTMLGlob("web/templates/*.html")

	pageHandler.SetupRoutes(router)
	broadcastHandler.SetupRoutes(router)
	renderHandler.SetupRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		status := healthChecker.CheckAll(ctx)
		if status.Status != "healthy" {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    status.Timestamp,
				"dependencies": status.Checks,
			})
			return
		}

		c.JSON(200, gin.H{
			"status":       "ready",
			"timestamp":    status.Timestamp,
			"dependencies": status.Checks,
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Stagecast server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down Stagecast server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("Stagecast server stopped")
}
