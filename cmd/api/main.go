package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartretail/storefront/api/routes"
	"github.com/smartretail/storefront/internal/cart"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/optimize"
	"github.com/smartretail/storefront/internal/session"
	"github.com/smartretail/storefront/pkg/config"
	"github.com/smartretail/storefront/pkg/logger"
	"github.com/smartretail/storefront/pkg/metrics"
	"github.com/smartretail/storefront/pkg/store"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	st, err := store.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis store", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logg.Error(context.Background(), "error closing store", err)
		}
	}()

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithTimeout(cfg.Catalog.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}

	optimizeClient, err := optimize.NewClient(cfg.Optimizer.BaseURL, optimize.WithTimeout(cfg.Optimizer.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create optimization client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	sessionMetrics := metrics.NewSessionMetrics(registry)

	machine, err := cart.NewMachine(context.Background(), st, logg, sessionMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to restore cart", err)
		os.Exit(1)
	}

	sess, err := session.New(context.Background(), session.Params{
		Cart:      machine,
		Catalog:   catalogClient,
		Optimizer: optimizeClient,
		Store:     st,
		Logger:    logg,
		Metrics:   sessionMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session", err)
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
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, st, sess, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
