package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/excommerce-backend/internal/cron"
	"github.com/angelmondragon/excommerce-backend/internal/customers"
	"github.com/angelmondragon/excommerce-backend/internal/naming"
	"github.com/angelmondragon/excommerce-backend/internal/salesorders"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/metrics"
	"github.com/angelmondragon/excommerce-backend/pkg/migrate"
	"github.com/angelmondragon/excommerce-backend/pkg/redis"
)

const metricsShutdownTimeout = 5 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.FromConfig("cron-worker", cfg.App))

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	service, err := buildScheduler(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := service.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if addr := cfg.Cron.MetricsAddr; addr != "" {
		server := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), metricsShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}

func buildScheduler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry prometheus.Registerer) (*cron.Service, error) {
	names := naming.NewGenerator()
	customerService, err := customers.NewService(dbClient, customers.NewRepository(dbClient.DB()), names, customers.Defaults{
		CustomerGroup: cfg.Checkout.DefaultCustomerGroup,
		Territory:     cfg.Checkout.DefaultTerritory,
		Country:       cfg.Checkout.DefaultCountry,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer service: %w", err)
	}

	salesOrderService, err := salesorders.NewService(
		salesorders.NewRepository(dbClient.DB()),
		dbClient,
		customerService,
		names,
		metrics.NewStorefrontMetrics(registry),
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("create sales order service: %w", err)
	}

	backfill, err := cron.NewBridgeBackfillJob(cron.BridgeBackfillParams{
		Logger:   logg,
		Promoter: salesOrderService,
		Limit:    cfg.Cron.BackfillLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("create backfill job: %w", err)
	}

	jobs, err := cron.NewRegistry(backfill)
	if err != nil {
		return nil, fmt.Errorf("register cron jobs: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, "cron-worker:"+cfg.App.Env, cfg.Cron.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("create cron lock: %w", err)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    metrics.NewJobMetrics(registry),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
}
