package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbmwhylt/wlt-team-space/internal/config"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			BasePath:        "/api",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			Issuer:             "wlt-test",
			TokenTTL:           time.Hour,
			BcryptCost:         4,
			LoginRatePerSecond: 5,
			LoginBurst:         5,
		},
		CORS:  config.CORSConfig{AllowedOrigins: "*"},
		Cache: config.CacheConfig{Backend: "memory", TTL: time.Minute, Size: 16},
		Media: config.MediaConfig{
			Backend:        "local",
			LocalDir:       t.TempDir(),
			PublicBaseURL:  "http://localhost/uploads",
			MaxUploadBytes: 1 << 20,
		},
	}
}

func TestNewApplicationInMemory(t *testing.T) {
	a, err := NewApplication(context.Background(), memoryConfig(t), logging.New("test", "error", "json"))
	require.NoError(t, err)
	require.NotNil(t, a.App())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API is running", rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunAndShutdown(t *testing.T) {
	a, err := NewApplication(context.Background(), memoryConfig(t), logging.New("test", "error", "json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestImageKitBackendRequiresKey(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Media.Backend = "imagekit"
	_, err := NewApplication(context.Background(), cfg, logging.New("test", "error", "json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imagekit private key")
}

func TestEphemeralSecret(t *testing.T) {
	a, err := ephemeralSecret()
	require.NoError(t, err)
	b, err := ephemeralSecret()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
}
