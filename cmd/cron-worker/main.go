package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/materialhub-backend/internal/cron"
	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/internal/preorders"
	"github.com/angelmondragon/materialhub-backend/pkg/config"
	"github.com/angelmondragon/materialhub-backend/pkg/db"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/metrics"
	"github.com/angelmondragon/materialhub-backend/pkg/migrate"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	locker, err := cron.NewRedisLocker(redisClient, redisClient.LockKey(serviceName), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	outboxRepo := outbox.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notifier, err := notifications.NewDirectEmitter(notificationsRepo, logg)
	if err != nil {
		return nil, err
	}

	preorderService, err := preorders.NewService(preorders.ServiceParams{
		Repo:              preorders.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Outbox:            outbox.NewService(outboxRepo, logg),
		Notifier:          notifier,
		Logger:            logg,
		Policy:            preorders.NewPolicy(cfg.PreOrder.RequirePaidBeforeDelivery),
		PaymentTermMonths: cfg.PreOrder.PaymentTermMonths,
	})
	if err != nil {
		return nil, err
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return nil, err
	}

	sweep, err := cron.NewOverdueSweepJob(preorderService)
	if err != nil {
		return nil, err
	}
	cleanup, err := cron.NewNotificationCleanupJob(notificationsService, cfg.Cron.NotificationRetention)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(outboxRepo, 0)
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry()
	for _, job := range []cron.Job{sweep, cleanup, retention} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
