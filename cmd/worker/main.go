package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/callog-relay/internal/application/record"
	"github.com/callog-relay/internal/bootstrap"
	"github.com/callog-relay/internal/config"
	"github.com/callog-relay/internal/infrastructure/awsutil"
	sqsqueue "github.com/callog-relay/internal/infrastructure/sqs"
	"github.com/callog-relay/internal/logging"
	"github.com/joho/godotenv"
)

// The worker drains delayed expiry jobs from SQS and runs the periodic
// cleanup of old records.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Init("callog-worker", cfg.LogFormat)

	if cfg.ExpiryScheduler != config.SchedulerSQS {
		slog.Error("worker requires EXPIRY_SCHEDULER=sqs", "expiry", cfg.ExpiryScheduler)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		slog.Error("open backends", "err", err)
		os.Exit(1)
	}
	defer backends.Close()

	keeper := record.NewKeeper(record.KeeperDeps{
		Store:     backends.Notifications,
		Scheduler: backends.ExpiryScheduler(cfg),
	})
	defer keeper.Close()

	if cfg.CleanupEnabled {
		go keeper.RunCleanup(ctx, cfg.CleanupInterval, cfg.CleanupMaxAge, cfg.CleanupBatchLimit)
	}

	consumer := &sqsqueue.Consumer{
		SQS:               sqsqueue.NewClient(backends.AWS, awsutil.Endpoint(cfg)),
		QueueURL:          cfg.ExpiryQueueURL,
		WaitTimeSeconds:   cfg.ExpiryQueueWaitTime,
		MaxMessages:       cfg.ExpiryQueueMaxMsgs,
		VisibilityTimeout: 30,
	}

	slog.Info("worker started", "queue", cfg.ExpiryQueueURL, "store", cfg.StoreBackend)
	err = consumer.Poll(ctx, func(ctx context.Context, job sqsqueue.ExpiryJob) error {
		changed, err := keeper.SweepExpired(ctx, job.NotificationID)
		if err != nil {
			return err
		}
		slog.Info("expiry sweep", "notification_id", job.NotificationID, "expired", changed)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
