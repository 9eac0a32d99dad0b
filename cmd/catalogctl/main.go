package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/bootstrap"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, loadContainer, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		os.Exit(1)
	}
}

// loadContainer opens the stores described by the environment. Logs go to
// stderr so command output stays parseable.
func loadContainer(ctx context.Context, envFile string) (*bootstrap.Container, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "catalogctl",
		Version:     Version,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogOutputFormat(),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})
	return bootstrap.Build(ctx, cfg, logg, bootstrap.Options{})
}
