package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/checkout-shipping/api"
	"github.com/angelmondragon/checkout-shipping/api/routes"
	"github.com/angelmondragon/checkout-shipping/internal/checkout"
	"github.com/angelmondragon/checkout-shipping/internal/lockers"
	"github.com/angelmondragon/checkout-shipping/internal/orders"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/warehouses"
	"github.com/angelmondragon/checkout-shipping/pkg/config"
	"github.com/angelmondragon/checkout-shipping/pkg/db"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/angelmondragon/checkout-shipping/pkg/metrics"
	"github.com/angelmondragon/checkout-shipping/pkg/migrate"
	"github.com/angelmondragon/checkout-shipping/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	resolverClient, err := shippingoptions.NewClient(cfg.Resolver.BaseURL,
		shippingoptions.WithAPIKey(cfg.Resolver.APIKey),
		shippingoptions.WithTimeout(cfg.Resolver.Timeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create shipping resolver client", err)
		os.Exit(1)
	}

	ordersClient, err := orders.NewClient(cfg.Orders.BaseURL,
		orders.WithAPIKey(cfg.Orders.APIKey),
		orders.WithTimeout(cfg.Orders.Timeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create orders client", err)
		os.Exit(1)
	}

	recentLockers := lockers.NewRecentStore(redisClient, logg, cfg.Session.RecentLockersMax, cfg.Session.RecentLockersTTL)

	checkoutService, err := checkout.NewService(checkout.Params{
		Sessions:  checkout.NewRedisSessionStore(redisClient, cfg.Session.TTL),
		Resolver:  shippingoptions.Instrument(resolverClient, checkoutMetrics),
		Directory: warehouses.NewRepository(dbClient.DB()),
		Submitter: ordersClient,
		Recent:    recentLockers,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"db_driver": cfg.DB.Driver,
	})
	logg.Info(runCtx, "starting api server")

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		checkoutService,
		recentLockers,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)

	if err := api.Run(runCtx, api.NewServer(addr, handler), logg); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}
