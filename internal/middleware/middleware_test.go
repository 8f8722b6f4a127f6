package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	cors := NewCORSMiddleware([]string{"https://dash.example.com", "*.wlt.app"})
	handler := cors.Handler(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://dash.example.com", "https://dash.example.com"},
		{"https://acme.wlt.app", "https://acme.wlt.app"},
		{"https://evil.example.org", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/microsites", nil)
		req.Header.Set("Origin", tt.origin)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"), tt.origin)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/microsites", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	all := NewCORSMiddleware([]string{"*"}).Handler(okHandler)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.test")
	rr = httptest.NewRecorder()
	all.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.New("test", "error", "json"))
	handler := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
			assert.Contains(t, rr.Body.String(), "RATE_LIMIT_EXCEEDED")
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterCleanupRemovesIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("new")

	assert.Equal(t, 1, rl.Cleanup())
	_, stillThere := rl.visitors["new"]
	assert.True(t, stillThere)
}

func TestRateLimiterStartStop(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.interval = time.Millisecond
	ctx := context.Background()

	require.NoError(t, rl.Start(ctx))
	require.NoError(t, rl.Start(ctx))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, rl.Stop(ctx))
	require.NoError(t, rl.Stop(ctx))
}

func TestLoggingMiddlewareSetsTraceID(t *testing.T) {
	logger := logging.New("test", "info", "json")
	hook := test.NewLocal(logger.Logger)

	var seen string
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/microsites", nil)
	req.Header.Set("X-Trace-ID", "trace-abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "trace-abc", seen)
	assert.Equal(t, "trace-abc", rr.Header().Get("X-Trace-ID"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, http.StatusCreated, entry.Data["status"])
	assert.Equal(t, "trace-abc", entry.Data["trace_id"])

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Trace-ID"))
}

func TestRecovery(t *testing.T) {
	handler := Recovery(logging.New("test", "error", "json"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")
}
