package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/bootstrap"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
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
		Format:      cfg.App.LogOutputFormat(),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	container, err := bootstrap.Build(ctx, cfg, logg, bootstrap.Options{Registerer: registry})
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storefront", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	products, err := container.Catalog.FetchAll(ctx)
	if err != nil {
		logg.Error(ctx, "initial catalog load failed", err)
	} else {
		logg.Info(logg.WithField(ctx, "products", len(products)), "catalog loaded")
	}

	cancelWatch, err := container.Catalog.Subscribe(ctx, func(products []catalog.Product) {
		logg.Debug(logg.WithField(ctx, "products", len(products)), "catalog snapshot applied")
	})
	if err != nil {
		logg.Error(ctx, "catalog listener failed to start", err)
	} else {
		defer cancelWatch()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"catalog": cfg.Catalog.Backend,
		"cart":    cfg.Cart.Backend,
	})
	logg.Info(serverCtx, "starting storefront server")

	server := api.NewServer(addr, routes.NewRouter(container, registry))
	if err := api.Serve(serverCtx, server, logg); err != nil {
		logg.Error(serverCtx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "storefront server stopped")
}
