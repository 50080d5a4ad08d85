package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/replenishlabs/replenish-backend/internal/checkout"
	"github.com/replenishlabs/replenish-backend/internal/consolidated"
	"github.com/replenishlabs/replenish-backend/internal/cron"
	"github.com/replenishlabs/replenish-backend/internal/customers"
	"github.com/replenishlabs/replenish-backend/internal/installments"
	"github.com/replenishlabs/replenish-backend/internal/inventory"
	"github.com/replenishlabs/replenish-backend/internal/orders"
	"github.com/replenishlabs/replenish-backend/pkg/config"
	"github.com/replenishlabs/replenish-backend/pkg/db"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
	"github.com/replenishlabs/replenish-backend/pkg/logger"
	"github.com/replenishlabs/replenish-backend/pkg/metrics"
	"github.com/replenishlabs/replenish-backend/pkg/migrate"
	"github.com/replenishlabs/replenish-backend/pkg/outbox"
	"github.com/replenishlabs/replenish-backend/pkg/redis"
	"github.com/replenishlabs/replenish-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "billing-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "billing-worker"

	logg = logger.New(logger.Options{
		ServiceName: "billing-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	gateway, err := checkout.NewSquareGateway(squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRate)
	if err != nil {
		logg.Error(context.Background(), "invalid checkout tax rate", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(
		dbClient,
		ordersRepo,
		gateway,
		outboxService,
		checkout.Config{
			TaxRate:          taxRate,
			ShipmentFeeCents: cfg.Checkout.ShipmentFeeCents,
		},
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	scheduleRepo := installments.NewRepository(dbClient.DB())
	recorder, err := installments.NewRecorder(scheduleRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create detail recorder", err)
		os.Exit(1)
	}

	billingMetrics := metrics.NewBillingRunMetrics(prometheus.DefaultRegisterer)
	factory := cron.NewProcessorFactory(consolidated.Params{
		Customers: customers.NewRepository(dbClient.DB()),
		Orders:    ordersRepo,
		Schedule:  scheduleRepo,
		Recorder:  recorder,
		Inventory: inventory.NewChecker(dbClient.DB(), cfg.Checkout.AllowBackorder),
		Checkout:  checkoutService,
		Outbox:    outboxService,
		Tx:        dbClient,
		Config: consolidated.Config{
			Store:                  cfg.Checkout.Store,
			Currency:               enums.CurrencyUSD,
			CheckoutFailureDetails: cfg.Billing.CheckoutFailureDetails,
			OutOfStockRetry:        cfg.Billing.OutOfStockRetry,
		},
		Logger: logg,
	})

	billingJob, err := cron.NewBillingRunJob(cron.BillingRunJobParams{
		Logger:    logg,
		Schedule:  scheduleRepo,
		Factory:   factory,
		Metrics:   billingMetrics,
		BatchSize: cfg.Billing.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("billing-run"), cfg.Billing.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cycle lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(billingJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Billing.RunInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	healthServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: newHealthRouter(logg, dbClient, redisClient),
	}
	go func() {
		logg.Info(ctx, "health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "health server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "health server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting billing worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "billing worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "billing worker shutting down gracefully")
}
