// Command microsite-api serves the microsite REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sbmwhylt/wlt-team-space/internal/app/runtime"
	"github.com/sbmwhylt/wlt-team-space/internal/config"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "YAML config overlay (defaults to $"+config.ConfigFileEnv+")")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New("microsite-api", cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Error("server stopped")
	}
	log.Info("shutting down")
	if err := application.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}
