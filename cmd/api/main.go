package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/commercebridge/ucp-gateway/api/routes"
	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/internal/backend/local"
	"github.com/commercebridge/ucp-gateway/internal/backend/shopify"
	checkoutsvc "github.com/commercebridge/ucp-gateway/internal/checkout"
	"github.com/commercebridge/ucp-gateway/internal/discovery"
	"github.com/commercebridge/ucp-gateway/internal/notifications"
	ordersvc "github.com/commercebridge/ucp-gateway/internal/orders"
	productsvc "github.com/commercebridge/ucp-gateway/internal/products"
	"github.com/commercebridge/ucp-gateway/pkg/config"
	"github.com/commercebridge/ucp-gateway/pkg/db"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/metrics"
	"github.com/commercebridge/ucp-gateway/pkg/migrate"
	"github.com/commercebridge/ucp-gateway/pkg/money"
	"github.com/commercebridge/ucp-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ucp-gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ucp-gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)

	var (
		adapter  backend.Adapter
		dbPinger db.Pinger
	)

	switch cfg.Backend.Normalized() {
	case config.BackendShopify:
		adapter, err = shopify.New(cfg.Shopify, logg)
		if err != nil {
			logg.Error(ctx, "failed to build shopify adapter", err)
			os.Exit(1)
		}

	case config.BackendLocal:
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "file:ucp.db?cache=shared"
		}

		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(ctx, "error closing database", err)
			}
		}()
		dbPinger = dbClient

		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}

		taxes, err := money.NewFlatRate(cfg.Tax.FlatRate)
		if err != nil {
			logg.Error(ctx, "invalid tax rate", err)
			os.Exit(1)
		}

		platform, err := local.New(dbClient, taxes, cfg.Discovery.BaseURL, logg)
		if err != nil {
			logg.Error(ctx, "failed to build local platform", err)
			os.Exit(1)
		}

		if cfg.App.IsDev() {
			if err := platform.Seed(ctx); err != nil {
				logg.Error(ctx, "failed to seed demo catalog", err)
				os.Exit(1)
			}
		}

		adapter = platform
	}

	var (
		store       checkoutsvc.Store
		redisPinger redis.Pinger
	)

	if cfg.Redis.Configured() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		redisPinger = redisClient

		store, err = checkoutsvc.NewRedisStore(redisClient, cfg.Session.TTL)
		if err != nil {
			logg.Error(ctx, "failed to build session store", err)
			os.Exit(1)
		}
	} else {
		store, err = checkoutsvc.NewMemoryStore(cfg.Session.TTL)
		if err != nil {
			logg.Error(ctx, "failed to build session store", err)
			os.Exit(1)
		}
		logg.Warn(ctx, "redis not configured, sessions held in process memory")
	}

	sink, err := notifications.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Timeout, logg, m)
	if err != nil {
		logg.Error(ctx, "failed to build webhook sink", err)
		os.Exit(1)
	}

	engine, err := checkoutsvc.NewService(
		adapter,
		store,
		cfg.Session.TTL,
		logg,
		checkoutsvc.WithMetrics(m),
		checkoutsvc.WithNotifier(sink),
	)
	if err != nil {
		logg.Error(ctx, "failed to build checkout engine", err)
		os.Exit(1)
	}

	products, err := productsvc.NewService(adapter)
	if err != nil {
		logg.Error(ctx, "failed to build product service", err)
		os.Exit(1)
	}

	orders, err := ordersvc.NewService(adapter)
	if err != nil {
		logg.Error(ctx, "failed to build order service", err)
		os.Exit(1)
	}

	disc, err := discovery.NewService(adapter, cfg.Discovery.BaseURL)
	if err != nil {
		logg.Error(ctx, "failed to build discovery service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": adapter.Name(),
	})
	logg.Info(ctx, "starting ucp gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbPinger,
			Redis:     redisPinger,
			Metrics:   m,
			Gatherer:  reg,
			Checkout:  engine,
			Products:  products,
			Orders:    orders,
			Discovery: disc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
