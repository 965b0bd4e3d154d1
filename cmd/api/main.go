package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bazaarly/checkout-backend/api/routes"
	"github.com/bazaarly/checkout-backend/internal/address"
	"github.com/bazaarly/checkout-backend/internal/cart"
	checkoutsvc "github.com/bazaarly/checkout-backend/internal/checkout"
	"github.com/bazaarly/checkout-backend/internal/coupons"
	"github.com/bazaarly/checkout-backend/internal/orders"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/db"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/metrics"
	"github.com/bazaarly/checkout-backend/pkg/migrate"
	"github.com/bazaarly/checkout-backend/pkg/outbox"
	"github.com/bazaarly/checkout-backend/pkg/razorpay"
	"github.com/bazaarly/checkout-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	// The gateway is optional: without credentials the API still serves
	// cash-on-delivery checkouts.
	var gateway *razorpay.Client
	if cfg.Razorpay.Configured() {
		gateway, err = razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap razorpay client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "razorpay credentials absent, gateway payments disabled")
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	var ordersService orders.Service
	var checkoutService *checkoutsvc.Service
	sessionStore := checkoutsvc.NewRedisSessionStore(redisClient, cfg.Checkout.SessionTTL)
	cartReader := cart.NewRepository(dbClient.DB())
	addressProvider := address.NewRepository(dbClient.DB())
	couponResolver := coupons.NewRepository(dbClient.DB())

	if gateway != nil {
		ordersService, err = orders.NewService(ordersRepo, dbClient, outboxService, gateway, logg)
	} else {
		ordersService, err = orders.NewService(ordersRepo, dbClient, outboxService, nil, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	if gateway != nil {
		checkoutService, err = checkoutsvc.NewService(cartReader, addressProvider, couponResolver,
			sessionStore, ordersService, gateway, cfg.Pricing, checkoutMetrics, logg)
	} else {
		checkoutService, err = checkoutsvc.NewService(cartReader, addressProvider, couponResolver,
			sessionStore, ordersService, nil, cfg.Pricing, checkoutMetrics, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, checkoutService, addressProvider, ordersRepo),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
