// Package testutil starts an in-memory microsite API for tests of code that
// talks to it over HTTP.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"

	app "github.com/sbmwhylt/wlt-team-space/internal/app"
	"github.com/sbmwhylt/wlt-team-space/internal/app/httpapi"
	"github.com/sbmwhylt/wlt-team-space/internal/app/media"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/auth"
	"github.com/sbmwhylt/wlt-team-space/internal/app/services/users"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// Seeded super-admin credentials.
const (
	AdminEmail    = "admin@wlt.test"
	AdminPassword = "admin-pass-1"
	AdminUserName = "superadmin"
)

// CDNBaseURL prefixes the URLs returned by the fake uploader.
const CDNBaseURL = "https://cdn.example/"

// APIServer is a running API backed by memory stores.
type APIServer struct {
	*httptest.Server
	App *app.Application
}

// BaseURL is the API root clients should be pointed at.
func (s *APIServer) BaseURL() string {
	return s.URL + httpapi.DefaultBasePath
}

// Uploader stores nothing and returns CDNBaseURL plus the file name.
type Uploader struct{}

func (Uploader) Upload(_ context.Context, f media.File) (string, error) {
	return CDNBaseURL + f.Name, nil
}

func (Uploader) Backend() string { return "testutil" }

// NewAPIServer starts the API with one super-admin seeded. It is closed
// when the test ends.
func NewAPIServer(t testing.TB) *APIServer {
	t.Helper()
	log := logging.New("test", "error", "json")
	application, err := app.New(app.Stores{}, app.Options{
		Auth:           auth.Config{Secret: "testutil-secret", Issuer: "wlt-test"},
		BcryptCost:     4,
		Uploader:       Uploader{},
		MaxUploadBytes: 1 << 20,
	}, log)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if _, err := application.Users.Register(context.Background(), users.RegisterInput{
		FirstName: "Super",
		LastName:  "Admin",
		UserName:  AdminUserName,
		Email:     AdminEmail,
		Password:  AdminPassword,
		Role:      "super-admin",
	}, true); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	srv := httptest.NewServer(httpapi.NewHandler(application, httpapi.Options{Logger: log}))
	t.Cleanup(srv.Close)
	return &APIServer{Server: srv, App: application}
}
