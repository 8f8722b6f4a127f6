package middleware

import (
	"net/http"
	"strings"

	internalhttputil "github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// RequireRole rejects requests whose token role is not one of roles.
func RequireRole(logger *logging.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(role)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				internalhttputil.Unauthorized(w, "")
				return
			}
			if !allowed[strings.ToLower(claims.Role)] {
				if logger != nil {
					logger.LogSecurityEvent(r.Context(), "forbidden", map[string]interface{}{
						"path":   r.URL.Path,
						"method": r.Method,
					})
				}
				internalhttputil.Forbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
