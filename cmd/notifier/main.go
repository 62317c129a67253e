package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/park_reviewer/internal/config"
	"github.com/Pesokrava/park_reviewer/internal/delivery/events"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.Log.Level)
	appLogger.Info("Starting notifier service...")

	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	for _, subject := range events.StreamSubjects {
		if err := consumer.Subscribe(subject, events.LoggingHandler(appLogger)); err != nil {
			appLogger.Fatalf(err, "Failed to subscribe to %s", subject)
		}
	}

	appLogger.Infof("Notifier listening on %s and %s", domain.ReviewEventsSubject, domain.LikeEventsSubject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down notifier service...")
}
