package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/service"
	"github.com/noah-isme/weprep-api/pkg/config"
	"github.com/noah-isme/weprep-api/pkg/logger"
	"github.com/noah-isme/weprep-api/pkg/messaging"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer, err := messaging.NewConsumer(cfg.Kafka, logr.Named("consumer"))
	if err != nil {
		logr.Fatal("failed to create consumer", zap.Error(err))
	}

	notifications := service.NewNotificationService(service.NewLogSink(logr.Named("notifications")), logr)

	logr.Info("notifier started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.EventsTopic),
		zap.String("group", cfg.Kafka.GroupID),
	)
	runErr := consumer.Run(ctx, notifications.HandleMessage)
	if err := consumer.Close(); err != nil {
		logr.Warn("failed to close consumer", zap.Error(err))
	}
	if runErr != nil {
		// Exiting leaves the group so the uncommitted message is redelivered on restart.
		logr.Error("consumer stopped", zap.Error(runErr))
		logr.Sync() //nolint:errcheck
		os.Exit(1)
	}
	logr.Info("notifier stopped")
}
