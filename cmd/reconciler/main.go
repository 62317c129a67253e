package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/park_reviewer/internal/config"
	"github.com/Pesokrava/park_reviewer/internal/delivery/events"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
	"github.com/Pesokrava/park_reviewer/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.Log.Level)
	appLogger.Info("Starting likes reconciler...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability.ServiceName+"-reconciler", cfg.Observability.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("Failed to set up telemetry", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(tctx)
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

	reconcileWorker := worker.NewReconcileWorker(worker.NewReconciler(db, appLogger), metrics, appLogger)

	appLogger.Info("Connecting to NATS JetStream...")
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("park-reviewer-reconciler"))
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	streamConfig := events.NewStreamConfig(js, appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}
	if err := streamConfig.EnsureConsumer(events.ReconcilerConsumer, domain.LikeEventsSubject); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	sub, err := js.PullSubscribe(domain.LikeEventsSubject, events.ReconcilerConsumer, nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	appLogger.WithFields(map[string]any{
		"stream":   events.StreamName,
		"consumer": events.ReconcilerConsumer,
		"interval": cfg.Reconcile.Interval.String(),
	}).Info("Subscribed to JetStream consumer")

	go reconcileWorker.Run(ctx, sub)
	go reconcileWorker.RunSweep(ctx, cfg.Reconcile.Interval)

	<-ctx.Done()
	appLogger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reconcileWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Likes reconciler stopped")
}
