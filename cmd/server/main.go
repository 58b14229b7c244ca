package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/alttext-service-api/internal/captioner"
	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/makkenzo/alttext-service-api/internal/handler"
	"github.com/makkenzo/alttext-service-api/internal/handler/middleware"
	"github.com/makkenzo/alttext-service-api/internal/service"
	"github.com/makkenzo/alttext-service-api/internal/storage/objectstore"
	"github.com/makkenzo/alttext-service-api/internal/storage/postgres"
	"github.com/makkenzo/alttext-service-api/internal/storage/redis"
	"github.com/makkenzo/alttext-service-api/internal/worker"
	"github.com/makkenzo/alttext-service-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	if err := postgres.Migrate(appCtx, dbPool, appLogger); err != nil {
		sugarLogger.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	urlResolver, err := objectstore.NewResolver(cfg.Storage, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to configure object storage: %v", err)
	}

	if cfg.Auth.SessionSecret == "" {
		sugarLogger.Warn("auth.sessionSecret is empty; every session request will be rejected")
	}
	if cfg.Captioner.APIKey == "" {
		sugarLogger.Warn("captioner.apiKey is empty; requests to the captioning backend will be unauthenticated")
	}

	apiKeyRepo := postgres.NewAPIKeyRepository(dbPool, appLogger)
	userRepo := postgres.NewUserRepository(dbPool, appLogger)
	rateLimitRepo := postgres.NewRateLimitRepository(dbPool, appLogger)
	captionRepo := postgres.NewCaptionCacheRepository(dbPool, appLogger)
	usageRepo := postgres.NewUsageLogRepository(dbPool, appLogger)
	imageStore := postgres.NewImageStore(dbPool, appLogger)

	var hotCache service.HotCache
	if cfg.Cache.RedisEnabled {
		hotCache = redis.NewCaptionCache(redisClient, appLogger)
	}

	planService := service.NewPlanService(userRepo, appLogger)
	sessions := service.NewJWTSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionIssuer)
	credentialService := service.NewCredentialService(apiKeyRepo, planService, sessions, appLogger)
	rateLimitService := service.NewRateLimitService(rateLimitRepo, planService, cfg.RateLimit.FreeDailyLimit, cfg.RateLimit.RetryDelay, appLogger)
	cacheService := service.NewCaptionCacheService(captionRepo, hotCache, cfg.Cache.TTL, appLogger)
	usageService := service.NewUsageService(usageRepo, rateLimitService, appLogger)
	captionClient := captioner.NewClient(cfg.Captioner, appLogger)

	altTextService := service.NewAltTextService(
		credentialService,
		rateLimitService,
		cacheService,
		captionClient,
		usageService,
		imageStore,
		urlResolver,
		appLogger,
	)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	altTextHandler := handler.NewAltTextHandler(altTextService, cfg.Auth.SessionCookie, appLogger)

	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(middleware.Recovery(appLogger))

	corsConfig := cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST(service.GenerateEndpoint, altTextHandler.Generate)

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, captionRepo, appLogger); err != nil {
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
