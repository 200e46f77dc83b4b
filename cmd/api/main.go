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
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/excommerce-backend/api"
	"github.com/angelmondragon/excommerce-backend/api/routes"
	"github.com/angelmondragon/excommerce-backend/internal/auth"
	"github.com/angelmondragon/excommerce-backend/internal/cart"
	"github.com/angelmondragon/excommerce-backend/internal/catalog"
	"github.com/angelmondragon/excommerce-backend/internal/customers"
	"github.com/angelmondragon/excommerce-backend/internal/naming"
	"github.com/angelmondragon/excommerce-backend/internal/orders"
	"github.com/angelmondragon/excommerce-backend/internal/salesorders"
	"github.com/angelmondragon/excommerce-backend/internal/users"
	"github.com/angelmondragon/excommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/metrics"
	"github.com/angelmondragon/excommerce-backend/pkg/migrate"
	"github.com/angelmondragon/excommerce-backend/pkg/redis"
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
	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}

	logg = logger.New(logger.FromConfig("api", cfg.App))

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	decimal.MarshalJSONWithoutQuotes = true

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

	handler, err := buildRouter(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}
	server := api.NewServer(cfg, handler)

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": server.Addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return multierr.Combine(server.Shutdown(shutdownCtx), <-serveErr)
}

func buildRouter(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, fmt.Errorf("create catalog service: %w", err)
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.GuestTTL, cfg.Cart.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create cart store: %w", err)
	}
	cartLocker, err := cart.NewRedisLocker(redisClient, cfg.Cart.LockTTL, cfg.Cart.LockWait)
	if err != nil {
		return nil, fmt.Errorf("create cart locker: %w", err)
	}
	cartService, err := cart.NewService(cartStore, cartLocker, catalogService, storefrontMetrics)
	if err != nil {
		return nil, fmt.Errorf("create cart service: %w", err)
	}

	names := naming.NewGenerator()
	customerService, err := customers.NewService(dbClient, customers.NewRepository(dbClient.DB()), names, customers.Defaults{
		CustomerGroup: cfg.Checkout.DefaultCustomerGroup,
		Territory:     cfg.Checkout.DefaultTerritory,
		Country:       cfg.Checkout.DefaultCountry,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer service: %w", err)
	}

	orderService, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Cart:      cartService,
		Customers: customerService,
		Names:     names,
		Checkout:  cfg.Checkout,
		Metrics:   storefrontMetrics,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("create order service: %w", err)
	}

	salesOrderService, err := salesorders.NewService(
		salesorders.NewRepository(dbClient.DB()),
		dbClient,
		customerService,
		names,
		storefrontMetrics,
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("create sales order service: %w", err)
	}

	return routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Auth:        authService,
		Cart:        cartService,
		Catalog:     catalogService,
		Orders:      orderService,
		Customers:   customerService,
		SalesOrders: salesOrderService,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}), nil
}
