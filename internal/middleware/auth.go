// Package middleware provides HTTP middleware for the microsite API
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/errors"
	internalhttputil "github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

type claimsKey struct{}

// Verifier validates a bearer token and returns its claims.
type Verifier func(token string) (*auth.Claims, error)

// AuthMiddleware provides JWT authentication
type AuthMiddleware struct {
	verify         Verifier
	logger         *logging.Logger
	skipPaths      map[string]bool
	publicPrefixes []string
	optionalPaths  map[string]bool
}

// AuthOption customises the middleware.
type AuthOption func(*AuthMiddleware)

// WithPublicPrefixes lets GET and HEAD requests under the given prefixes
// through without a token.
func WithPublicPrefixes(prefixes ...string) AuthOption {
	return func(m *AuthMiddleware) {
		m.publicPrefixes = append(m.publicPrefixes, prefixes...)
	}
}

// WithOptionalPaths accepts anonymous requests on the given paths but still
// verifies a token when one is sent.
func WithOptionalPaths(paths ...string) AuthOption {
	return func(m *AuthMiddleware) {
		for _, p := range paths {
			m.optionalPaths[p] = true
		}
	}
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verify Verifier, logger *logging.Logger, skipPaths []string, opts ...AuthOption) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth-middleware")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}

	m := &AuthMiddleware{
		verify:        verify,
		logger:        logger,
		skipPaths:     skip,
		optionalPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || m.skipPaths[r.URL.Path] || m.isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optionalPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, r, errors.Unauthorized("No token provided"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.verify(strings.TrimSpace(parts[1]))
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("Token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		m.logger.WithContext(ctx).Debug("Authentication successful")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) isPublic(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	for _, prefix := range m.publicPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// respondError sends an error response
func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}

	internalhttputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)

	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("Authentication failed")
}

// WithClaims stores verified claims in ctx together with the logging fields
// derived from them.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	ctx = logging.WithUserID(ctx, strconv.FormatInt(claims.UserID, 10))
	if claims.Role != "" {
		ctx = logging.WithRole(ctx, claims.Role)
	}
	return ctx
}

// ClaimsFromContext returns the verified claims, or nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// RequireUserID middleware ensures user ID is present in context
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			internalhttputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
