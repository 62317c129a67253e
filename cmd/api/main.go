package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/park_reviewer/internal/auth"
	"github.com/Pesokrava/park_reviewer/internal/config"
	"github.com/Pesokrava/park_reviewer/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/park_reviewer/internal/delivery/http"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/handler"
	"github.com/Pesokrava/park_reviewer/internal/pkg/cache"
	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
	cacheRepo "github.com/Pesokrava/park_reviewer/internal/repository/cache"
	"github.com/Pesokrava/park_reviewer/internal/repository/postgres"
	"github.com/Pesokrava/park_reviewer/internal/storage"
	"github.com/Pesokrava/park_reviewer/internal/usecase/cascade"
	"github.com/Pesokrava/park_reviewer/internal/usecase/identity"
	"github.com/Pesokrava/park_reviewer/internal/usecase/image"
	"github.com/Pesokrava/park_reviewer/internal/usecase/like"
	"github.com/Pesokrava/park_reviewer/internal/usecase/park"
	"github.com/Pesokrava/park_reviewer/internal/usecase/review"

	_ "github.com/Pesokrava/park_reviewer/docs"
)

// @title Park Reviews API
// @version 1.0
// @description Park reviews with images, likes and per-user profiles.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Parks
// @tag.description Park registry endpoints

// @tag.name Reviews
// @tag.description Review management endpoints

// @tag.name Likes
// @tag.description Review like endpoints

// @tag.name Profiles
// @tag.description Profile endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.Log.Level)
	logger.SetGlobalLogger(appLogger)

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", err)
	}

	appLogger.Info("Starting Park Reviews API...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("Failed to set up telemetry", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(tctx); err != nil {
			appLogger.Warnf("Telemetry shutdown failed: %v", err)
		}
	}()

	metrics, err := observability.InitMetrics()
	if err != nil {
		appLogger.Fatal("Failed to init metrics", err)
	}

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(ctx, cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if cfg.Database.AutoMigrate {
		version, err := database.RunMigrations(ctx, db)
		if err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
		appLogger.Infof("Database schema at version %d", version)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(ctx, cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	if err := events.NewStreamConfig(publisher.JetStream(), appLogger).EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	objectStore, err := storage.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to set up image storage", err)
	}

	var converter image.Converter
	if cfg.Images.ConverterURL != "" {
		converter = storage.NewHTTPConverter(cfg.Images.ConverterURL, cfg.Images.ConverterTimeout)
	} else {
		appLogger.Warn("IMAGE_CONVERTER_URL not set, HEIC uploads will be rejected")
	}

	txManager := database.NewTxManager(db)

	parkRepo := postgres.NewParkRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	imageRepo := postgres.NewImageRepository(db)
	likeRepo := postgres.NewLikeRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ParkReviewsTTL,
		cfg.Cache.ProfileTTL,
	)

	identityService := identity.NewService(profileRepo, redisCache, appLogger)
	parkService := park.NewService(parkRepo, appLogger)
	coordinator := cascade.NewCoordinator(imageRepo, likeRepo, reviewRepo, objectStore, appLogger)
	imageService := image.NewService(
		reviewRepo, imageRepo, txManager, objectStore, converter, redisCache, publisher, metrics, appLogger,
	)
	reviewService := review.NewService(
		reviewRepo, imageRepo, imageService, coordinator, redisCache, publisher, appLogger,
	)
	likeService := like.NewService(reviewRepo, likeRepo, txManager, redisCache, publisher, metrics, appLogger)

	handlers := httpDelivery.Handlers{
		Reviews:  handler.NewReviewHandler(reviewService, identityService, appLogger),
		Likes:    handler.NewLikeHandler(likeService, identityService, appLogger),
		Profiles: handler.NewProfileHandler(identityService, appLogger),
		Parks:    handler.NewParkHandler(parkService, appLogger),
	}

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httpDelivery.NewRouter(handlers, verifier, objectStore, metrics, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
		return
	}

	appLogger.Info("Server stopped gracefully")
}
