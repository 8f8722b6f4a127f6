// Package httpapi exposes the microsite API over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/sbmwhylt/wlt-team-space/internal/app"
	"github.com/sbmwhylt/wlt-team-space/internal/app/metrics"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
	"github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
	"github.com/sbmwhylt/wlt-team-space/internal/middleware"
)

// DefaultBasePath prefixes every API route.
const DefaultBasePath = "/api"

// UploadsPath serves files written by the local media backend.
const UploadsPath = "/uploads/"

// Options configures the router.
type Options struct {
	BasePath    string
	CORSOrigins []string
	// LoginLimiter throttles POST /auth/login. Nil disables throttling.
	LoginLimiter *middleware.RateLimiter
	// Health reports backing store reachability for /healthz.
	Health func(ctx context.Context) error
	// UploadsDir, when set, is served read-only under UploadsPath.
	UploadsDir     string
	MaxUploadBytes int64
	Logger         *logging.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app  *app.Application
	opts Options
	log  *logging.Logger
}

// NewHandler returns the full middleware chain wrapped around the API router.
func NewHandler(application *app.Application, opts Options) http.Handler {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.Logger == nil {
		opts.Logger = logging.NewDefault("httpapi")
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	h := &handler{app: application, opts: opts, log: opts.Logger}

	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware())
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, string(svcerrors.CodeBadRequest), "Method not allowed", nil)
	})

	router.HandleFunc("/", h.root).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if opts.UploadsDir != "" {
		router.PathPrefix(UploadsPath).Handler(http.StripPrefix(UploadsPath, http.FileServer(http.Dir(opts.UploadsDir))))
	}

	api := router.PathPrefix(opts.BasePath).Subrouter()
	h.authRoutes(api)
	h.userRoutes(api)
	h.micrositeRoutes(api)
	api.HandleFunc("/stats", h.stats).Methods(http.MethodGet)

	authn := middleware.NewAuthMiddleware(
		application.Auth.Verify,
		opts.Logger.Named("auth"),
		[]string{"/", "/healthz", "/metrics", opts.BasePath + "/auth/login"},
		middleware.WithPublicPrefixes(opts.BasePath+"/microsites/slug/", UploadsPath),
		middleware.WithOptionalPaths(opts.BasePath+"/auth/register"),
	)
	cors := middleware.NewCORSMiddleware(opts.CORSOrigins)

	var chain http.Handler = router
	chain = authn.Handler(chain)
	chain = cors.Handler(chain)
	chain = middleware.LoggingMiddleware(opts.Logger)(chain)
	chain = middleware.Recovery(opts.Logger)(chain)
	return chain
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("API is running"))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health(ctx); err != nil {
			h.log.WithContext(r.Context()).WithError(err).Warn("health check failed")
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	userCounts, err := h.app.Users.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	siteCounts, err := h.app.Microsites.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"users":      userCounts,
		"microsites": siteCounts,
	})
}

// adminOnly wraps next with the admin role gate.
func (h *handler) adminOnly(next http.HandlerFunc) http.Handler {
	return middleware.RequireRole(h.log, "admin", "super-admin")(next)
}

func claimsOf(r *http.Request) *auth.Claims {
	return middleware.ClaimsFromContext(r.Context())
}

// pathID parses the {id} route variable. It writes a 400 and returns false
// when the id is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.BadRequest(w, "Invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// pageParams reads limit and offset from the query string.
func pageParams(w http.ResponseWriter, r *http.Request) (storage.Page, bool) {
	var page storage.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "Invalid "+name+": "+raw)
			return storage.Page{}, false
		}
		*dst = n
	}
	return page, true
}
