package runtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	app "github.com/sbmwhylt/wlt-team-space/internal/app"
	"github.com/sbmwhylt/wlt-team-space/internal/app/cache"
	"github.com/sbmwhylt/wlt-team-space/internal/app/httpapi"
	"github.com/sbmwhylt/wlt-team-space/internal/app/media"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage/postgres"
	"github.com/sbmwhylt/wlt-team-space/internal/app/system"
	"github.com/sbmwhylt/wlt-team-space/internal/config"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
	"github.com/sbmwhylt/wlt-team-space/internal/middleware"
	"github.com/sbmwhylt/wlt-team-space/internal/platform/database"
	"github.com/sbmwhylt/wlt-team-space/internal/platform/migrations"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	app        *app.Application
	handler    http.Handler
	httpServer *http.Server
	db         *sqlx.DB
}

// NewApplication builds the application described by cfg. A nil cfg is
// loaded from the environment.
func NewApplication(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if log == nil {
		log = logging.New("microsite-api", cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, log: log}
	stores, err := a.buildStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = ephemeralSecret()
		if err != nil {
			a.closeDB()
			return nil, err
		}
		log.Warn("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}

	c, err := a.buildCache(ctx)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("configure cache: %w", err)
	}
	uploader, uploadsDir, err := a.buildUploader()
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("configure media: %w", err)
	}

	application, err := app.New(stores, app.Options{
		Auth: auth.Config{
			Secret:   secret,
			Issuer:   cfg.Auth.Issuer,
			TokenTTL: cfg.Auth.TokenTTL,
		},
		BcryptCost:     cfg.Auth.BcryptCost,
		Cache:          c,
		CacheTTL:       cfg.Cache.TTL,
		Uploader:       uploader,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	}, log)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.app = application

	if closer, ok := c.(*cache.Redis); ok {
		_ = application.Attach(system.Func{
			ServiceName: "redis-cache",
			OnStop:      func(context.Context) error { return closer.Close() },
		})
	}

	var limiter *middleware.RateLimiter
	if cfg.Auth.LoginRatePerSecond > 0 {
		limiter = middleware.NewRateLimiter(float64(cfg.Auth.LoginRatePerSecond), cfg.Auth.LoginBurst, log.Named("ratelimit"))
		if err := application.Attach(limiter); err != nil {
			a.closeDB()
			return nil, err
		}
	}

	var health func(context.Context) error
	if a.db != nil {
		health = a.db.PingContext
	}

	a.handler = httpapi.NewHandler(application, httpapi.Options{
		BasePath:       cfg.Server.BasePath,
		CORSOrigins:    cfg.CORS.Origins(),
		LoginLimiter:   limiter,
		Health:         health,
		UploadsDir:     uploadsDir,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Logger:         log.Named("http"),
	})
	a.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return a, nil
}

// App exposes the composed services, for the seeder and tests.
func (a *Application) App() *app.Application {
	return a.app
}

// Handler returns the HTTP handler served by Run.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run starts the lifecycle services and the HTTP server and blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", ln.Addr())
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}
	a.closeDB()
	return nil
}

func (a *Application) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("error closing database connection")
	}
	a.db = nil
}

func (a *Application) buildStores(ctx context.Context) (app.Stores, error) {
	if a.cfg.UsesMemoryStore() {
		a.log.Warn("DATABASE_URL not set; using the in-memory store, data is lost on restart")
		return app.Stores{}, nil
	}

	db, err := database.Open(ctx, a.cfg.Database)
	if err != nil {
		return app.Stores{}, err
	}
	a.db = db

	if a.cfg.Database.AutoMigrate {
		if err := migrations.Apply(ctx, a.cfg.Database.ResolvedDSN(), a.log.Named("migrations")); err != nil {
			a.closeDB()
			return app.Stores{}, err
		}
	}

	store := postgres.NewFromSQLX(db)
	return app.Stores{Users: store, Microsites: store}, nil
}

func (a *Application) buildCache(ctx context.Context) (cache.Cache, error) {
	cfg := a.cfg.Cache
	switch cfg.Backend {
	case "none":
		return cache.Noop{}, nil
	case "redis":
		r := cache.NewRedis(cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return r, nil
	default:
		return cache.NewMemory(cfg.Size, cfg.TTL), nil
	}
}

func (a *Application) buildUploader() (media.Uploader, string, error) {
	cfg := a.cfg.Media
	switch cfg.Backend {
	case "imagekit":
		u, err := media.NewImageKit(media.ImageKitOptions{
			PrivateKey: cfg.ImageKitPrivateKey,
			UploadURL:  cfg.ImageKitUploadURL,
			Folder:     cfg.Folder,
		}, a.log.Named("media"))
		return u, "", err
	default:
		u, err := media.NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return u, u.Dir(), nil
	}
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
