// Package client is the Go SDK for the microsite API. It keeps a persisted
// session with timed auto-logout and per-entity resource clients backed by a
// shared TTL cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// ErrNotAuthenticated is returned by calls that need a session when none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the API under baseURL (for example http://localhost:5000/api).
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	cache   *TTLCache
	log     *logging.Logger

	Users      *Users
	Microsites *Microsites
}

// Option customises New.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession attaches an existing session.
func WithSession(s *Session) Option {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// WithCache replaces the process-wide SharedCache.
func WithCache(cache *TTLCache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = NewSession(nil)
	}
	if c.cache == nil {
		c.cache = SharedCache()
	}
	if c.log == nil {
		c.log = logging.NewWithWriter("client", "warn", "text", os.Stderr)
	}
	c.session.OnExpire(c.cache.Clear)
	c.Users = &Users{c: c}
	c.Microsites = &Microsites{c: c}
	return c, nil
}

// Session returns the client's session.
func (c *Client) Session() *Session { return c.session }

// Cache returns the TTL cache shared by the resource clients.
func (c *Client) Cache() *TTLCache { return c.cache }

type loginResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates and starts a session. Lists cached for an earlier
// identity are dropped.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return User{}, err
	}
	c.cache.Clear()
	if err := c.session.Login(resp.User, resp.Token); err != nil {
		return User{}, fmt.Errorf("store session: %w", err)
	}
	return resp.User, nil
}

// Logout ends the session and drops cached lists.
func (c *Client) Logout() error {
	c.cache.Clear()
	return c.session.Logout()
}

// Me returns the profile of the token holder.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// Refresh re-fetches the session profile.
func (c *Client) Refresh(ctx context.Context) error {
	return c.session.Refresh(ctx, c.Me)
}

// Stats returns the dashboard counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

// do sends a JSON request and decodes the JSON reply into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send attaches the bearer token and maps error responses. A 401 on an
// authenticated call ends the session.
func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	token := c.session.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithContext(req.Context()).WithError(err).WithField("path", req.URL.Path).Warn("request failed")
		return err
	}
	if err := httputil.DecodeResponse(resp, out); err != nil {
		var respErr *httputil.ResponseError
		if !errors.As(err, &respErr) {
			return err
		}
		apiErr := &APIError{Status: respErr.StatusCode, Code: respErr.Code, Message: respErr.Message}
		if apiErr.Status == http.StatusUnauthorized && token != "" {
			c.log.WithField("path", req.URL.Path).Warn("token rejected; signing out")
			c.cache.Clear()
			_ = c.session.Logout()
		}
		c.log.WithContext(req.Context()).
			WithField("path", req.URL.Path).
			WithField("status", apiErr.Status).
			Debug(apiErr.Message)
		return apiErr
	}
	return nil
}
