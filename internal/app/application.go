package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sbmwhylt/wlt-team-space/internal/app/cache"
	"github.com/sbmwhylt/wlt-team-space/internal/app/media"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/microsites"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/users"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage/memory"
	"github.com/sbmwhylt/wlt-team-space/internal/app/system"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users      storage.UserStore
	Microsites storage.MicrositeStore
}

// Options carries the non-store dependencies of the services.
type Options struct {
	Auth           auth.Config
	BcryptCost     int
	Cache          cache.Cache
	CacheTTL       time.Duration
	Uploader       media.Uploader
	MaxUploadBytes int64
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logging.Logger

	Users      *users.Service
	Auth       *auth.Service
	Microsites *microsites.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	if stores.Users == nil || stores.Microsites == nil {
		mem := memory.New()
		if stores.Users == nil {
			stores.Users = mem
		}
		if stores.Microsites == nil {
			stores.Microsites = mem
		}
	}

	var userOpts []users.Option
	if opts.BcryptCost > 0 {
		userOpts = append(userOpts, users.WithBcryptCost(opts.BcryptCost))
	}
	userService := users.New(stores.Users, log.Named("users"), userOpts...)

	authService, err := auth.New(userService, opts.Auth, log.Named("auth"))
	if err != nil {
		return nil, fmt.Errorf("configure auth: %w", err)
	}

	siteService := microsites.New(stores.Microsites, opts.Cache, log.Named("microsites")).WithCacheTTL(opts.CacheTTL)
	if opts.Uploader != nil {
		siteService.AttachUploader(opts.Uploader, opts.MaxUploadBytes)
	} else {
		log.Warn("no media backend configured; uploads disabled")
	}

	return &Application{
		manager:    system.NewManager(),
		log:        log,
		Users:      userService,
		Auth:       authService,
		Microsites: siteService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
