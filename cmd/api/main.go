package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/materialhub-backend/api/routes"
	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/internal/orders"
	"github.com/angelmondragon/materialhub-backend/internal/payments"
	"github.com/angelmondragon/materialhub-backend/internal/preorders"
	stripewebhook "github.com/angelmondragon/materialhub-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/materialhub-backend/pkg/config"
	"github.com/angelmondragon/materialhub-backend/pkg/db"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/metrics"
	"github.com/angelmondragon/materialhub-backend/pkg/migrate"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/materialhub-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/materialhub-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	var notifier notifications.Emitter
	if cfg.FeatureFlags.AsyncNotifications {
		notifier, err = notifications.NewOutboxEmitter(dbClient, outboxService, logg)
	} else {
		notifier, err = notifications.NewDirectEmitter(notificationsRepo, logg)
	}
	if err != nil {
		return err
	}

	preorderService, err := preorders.NewService(preorders.ServiceParams{
		Repo:              preorders.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Notifier:          notifier,
		Metrics:           lifecycleMetrics,
		Logger:            logg,
		Policy:            preorders.NewPolicy(cfg.PreOrder.RequirePaidBeforeDelivery),
		PaymentTermMonths: cfg.PreOrder.PaymentTermMonths,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxService, notifier, logg)
	if err != nil {
		return err
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return err
	}

	gateway, err := payments.NewStripeGateway(stripeClient)
	if err != nil {
		return err
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway: gateway,
		Targets: []payments.Target{
			payments.NewPreOrderTarget(preorderService),
			payments.NewOrderTarget(ordersService),
		},
		Metrics: lifecycleMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(paymentService, logg)
	if err != nil {
		return err
	}
	webhookGuard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			preorderService,
			paymentService,
			ordersService,
			notificationsService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
