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

	"github.com/lumierecia/restaurant-pos/api"
	"github.com/lumierecia/restaurant-pos/api/routes"
	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/internal/orders"
	"github.com/lumierecia/restaurant-pos/internal/placement"
	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/internal/reservation"
	"github.com/lumierecia/restaurant-pos/pkg/config"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/instance"
	"github.com/lumierecia/restaurant-pos/pkg/logger"
	"github.com/lumierecia/restaurant-pos/pkg/metrics"
	"github.com/lumierecia/restaurant-pos/pkg/migrate"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/redis"
)

const shutdownGrace = 20 * time.Second

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
		Instance:    instance.GetID("local"),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, reg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg, routes.NewRouter(deps))
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (routes.Deps, error) {
	conn := dbClient.DB()
	ledgerRepo := ledger.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)

	resolver, err := recipes.NewResolver(recipes.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}
	engine, err := reservation.NewEngine(ledgerRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	writer, err := orders.NewWriter(ordersRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	placer, err := placement.NewService(dbClient, resolver, engine, writer, publisher,
		placement.WithLogger(logg),
		placement.WithMetrics(metrics.NewPlacementMetrics(reg)),
		placement.WithTimeout(cfg.Orders.PlacementTimeout),
		placement.WithLockTimeout(cfg.DB.LockTimeout),
	)
	if err != nil {
		return routes.Deps{}, err
	}
	ordersSvc, err := orders.NewService(ordersRepo, ledgerRepo, dbClient, publisher)
	if err != nil {
		return routes.Deps{}, err
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo, dbClient)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    reg,
		Placer:      placer,
		Orders:      ordersSvc,
		Ledger:      ledgerSvc,
		Recipes:     resolver,
	}, nil
}
