// Package middleware provides HTTP middleware for the microsite API
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sbmwhylt/wlt-team-space/internal/errors"
	internalhttputil "github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-client token bucket rate limiting
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	maxIdle  time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *logging.Logger

	stop chan struct{}
	done chan struct{}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.NewDefault("ratelimit")
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		maxIdle:  10 * time.Minute,
		interval: time.Minute,
		now:      time.Now,
		logger:   logger,
	}
}

// getLimiter returns the limiter for key (user id or client IP)
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Handler returns the rate limiting middleware handler
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetUserID(r.Context())
		if key == "" {
			key = clientIP(r)
		}

		if !rl.getLimiter(key).Allow() {
			rl.logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			})

			serviceErr := errors.RateLimitExceeded(rl.burst, "1s")
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			internalhttputil.WriteError(w, r, serviceErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) retryAfter() int {
	if rl.rate <= 0 {
		return 60
	}
	secs := int(1 / float64(rl.rate))
	if secs < 1 {
		return 1
	}
	return secs
}

// Cleanup drops limiters that have been idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.maxIdle)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Name identifies the limiter's cleanup loop to the lifecycle manager.
func (rl *RateLimiter) Name() string { return "login-ratelimit" }

// Start runs Cleanup periodically until Stop.
func (rl *RateLimiter) Start(context.Context) error {
	rl.mu.Lock()
	if rl.stop != nil {
		rl.mu.Unlock()
		return nil
	}
	rl.stop = make(chan struct{})
	rl.done = make(chan struct{})
	stop, done := rl.stop, rl.done
	rl.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(rl.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := rl.Cleanup(); n > 0 {
					rl.logger.WithField("removed", n).Debug("rate limiter cleanup")
				}
			}
		}
	}()
	return nil
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop(ctx context.Context) error {
	rl.mu.Lock()
	stop, done := rl.stop, rl.done
	rl.stop, rl.done = nil, nil
	rl.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
