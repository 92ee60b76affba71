package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"driveshare/internal/notifications"
	"driveshare/pkg/config"
	"driveshare/pkg/kafka"
	kafka_config "driveshare/pkg/kafka/config"
	kafka_middleware "driveshare/pkg/kafka/middleware"
)

const (
	ServiceName     = "notifier"
	ConsumerGroupID = "booking-notifier"
)

func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load()

	cfg.Log.Info("Starting booking notifier",
		"topic", cfg.BookingEventsTopic,
		"group_id", ConsumerGroupID,
	)

	eventHandler := notifications.NewEventHandler(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		ConsumerGroupID,
		cfg.BookingEventsDLQTopic,
		eventHandler.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	cfg.Log.Info("Notifier stopped gracefully")
}
