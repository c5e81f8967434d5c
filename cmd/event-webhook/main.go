package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/db"
	"github.com/digitalme/backend/internal/events"
	"go.uber.org/zap"
)

// Event webhook: forwards every chain event published by the API to an
// external HTTP endpoint.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.WebhookURL == "" {
		log.Fatal("WEBHOOK_URL is not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	forwarder := events.NewWebhookForwarder(cfg.WebhookURL, cfg.WebhookSecret, cfg.RPCTimeout, log)

	log.Info("event-webhook started", zap.String("url", cfg.WebhookURL))

	err = subscriber.Subscribe(ctx, events.StreamChain, func(event events.Event) {
		if err := forwarder.Forward(ctx, event); err != nil {
			log.Warn("failed to forward event", zap.String("type", event.Type), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down event-webhook")
	cancel()
}
