package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

var testSecret = []byte("test-secret")

func testVerifier(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, testSecret, "wlt-test", nil)
}

func generateTestToken(t *testing.T, userID int64, role string, expired bool) string {
	claims := &auth.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wlt-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if expired {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

func newTestAuth(opts ...AuthOption) *AuthMiddleware {
	logger := logging.New("test", "error", "json")
	return NewAuthMiddleware(testVerifier, logger, []string{"/healthz", "/api/auth/login"}, opts...)
}

// echoClaims reports the caller seen by the handler.
var echoClaims = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(GetUserID(r.Context()) + ":" + claims.Role))
})

func TestAuthMiddleware_SkipPaths(t *testing.T) {
	handler := newTestAuth().Handler(echoClaims)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "anonymous" {
		t.Fatalf("skip path: status %d body %q", rr.Code, rr.Body.String())
	}
}

func TestAuthMiddleware_MissingAndMalformedHeader(t *testing.T) {
	handler := newTestAuth().Handler(echoClaims)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", "No token provided"},
		{"no bearer", "Token abc", "Invalid Authorization header format"},
		{"empty bearer", "Bearer ", "Invalid Authorization header format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tt.want {
				t.Fatalf("error = %v, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler := newTestAuth().Handler(echoClaims)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 7, "admin", false))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "7:admin" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestAuthMiddleware_ExpiredAndForeignTokens(t *testing.T) {
	handler := newTestAuth().Handler(echoClaims)

	expired := generateTestToken(t, 7, "user", true)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: 7}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, token := range map[string]string{"expired": expired, "foreign": foreign} {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rr.Code)
		}
	}
}

func TestAuthMiddleware_PublicPrefixesAndOptionalPaths(t *testing.T) {
	handler := newTestAuth(
		WithPublicPrefixes("/api/microsites/slug/"),
		WithOptionalPaths("/api/auth/register"),
	).Handler(echoClaims)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/microsites/slug/acme", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("public GET: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/microsites/slug/acme", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("public prefix must not cover writes: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "anonymous" {
		t.Fatalf("optional anonymous: status %d body %q", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 1, "super-admin", false))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Body.String() != "1:super-admin" {
		t.Fatalf("optional authenticated: body %q", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("optional path with bad token: status = %d", rr.Code)
	}
}

func TestRequireUserID(t *testing.T) {
	handler := RequireUserID(echoClaims)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: 3, Role: "user"}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "3:user" {
		t.Fatalf("status %d body %q", rr.Code, rr.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, "admin", "super-admin")(echoClaims)

	for role, want := range map[string]int{
		"admin":       http.StatusOK,
		"Super-Admin": http.StatusOK,
		"user":        http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodDelete, "/api/users/1", nil)
		req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: 1, Role: role}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("role %s: status = %d, want %d", role, rr.Code, want)
		}
	}
}
