// Command microsite-seed provisions the default super-admin and microsite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sbmwhylt/wlt-team-space/internal/app/runtime"
	"github.com/sbmwhylt/wlt-team-space/internal/app/seed"
	"github.com/sbmwhylt/wlt-team-space/internal/config"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "YAML config overlay (defaults to $"+config.ConfigFileEnv+")")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New("microsite-seed", cfg.Logging.Level, cfg.Logging.Format)
	if cfg.UsesMemoryStore() {
		log.Warn("DATABASE_URL is not set; seeded rows will not outlive this process")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("seeding failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if err := application.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("shutdown failed")
		}
	}()

	res, err := seed.Run(ctx, application.App(), cfg.Seed, log.Named("seed"))
	if err != nil {
		return err
	}
	log.WithField("admin_created", res.AdminCreated).
		WithField("microsite_created", res.MicrositeCreated).
		Info("seeding completed")
	return nil
}
